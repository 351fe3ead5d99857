// Package certutil wraps the key, CSR, and certificate primitives the
// coordinator needs: RSA key generation, PEM encoding and parsing,
// single-domain CSR creation, chain splitting, and leaf inspection.
package certutil
