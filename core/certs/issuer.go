package certs

import (
	"context"
	"crypto/x509"
	"fmt"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"

	"github.com/postalsys/certs/core/acmeaccount"
	"github.com/postalsys/certs/core/challenge"
)

// issuer runs one ACME order for a CSR. Narrow on purpose: tests substitute
// a stub, production drives the ACME client with the shared challenge store
// answering HTTP-01.
type issuer interface {
	Issue(ctx context.Context, account *acmeaccount.Account, csr *x509.CertificateRequest) (*certificate.Resource, error)
}

type acmeIssuer struct {
	directoryURL string
	provider     *challenge.Provider
}

func newACMEIssuer(directoryURL string, store *challenge.Store) *acmeIssuer {
	return &acmeIssuer{
		directoryURL: directoryURL,
		provider:     challenge.NewProvider(store),
	}
}

// Issue obtains a certificate for the CSR, letting the ACME client drive the
// order/authorization/finalize flow. The client invokes the challenge
// provider's Present and CleanUp, which write to and remove from the shared
// challenge store, during authorization; any front-end process
// serves the stored answer on the well-known path.
func (i *acmeIssuer) Issue(ctx context.Context, account *acmeaccount.Account, csr *x509.CertificateRequest) (*certificate.Resource, error) {
	cfg := lego.NewConfig(account)
	cfg.CADirURL = i.directoryURL

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create acme client: %w", err)
	}

	if err := client.Challenge.SetHTTP01Provider(i.provider); err != nil {
		return nil, fmt.Errorf("configure http-01 provider: %w", err)
	}

	res, err := client.Certificate.ObtainForCSR(certificate.ObtainForCSRRequest{
		CSR:    csr,
		Bundle: true,
	})
	if err != nil {
		return nil, fmt.Errorf("obtain certificate: %w", err)
	}
	return res, nil
}
