// Package async provides utilities for asynchronous programming with Go generics.
//
// This package implements a Future pattern for non-blocking operations with
// timeout support. The coordinator uses it to keep CPU-heavy work, such as
// RSA key generation, off latency-sensitive paths.
//
// # Core Types
//
// Future[U] represents the result of an asynchronous computation. It provides
// methods to wait for completion (Await), check status without blocking
// (IsComplete), and handle timeouts (AwaitWithTimeout).
//
// # Usage
//
//	future := async.Async(ctx, 2048, func(ctx context.Context, bits int) (*rsa.PrivateKey, error) {
//		return rsa.GenerateKey(rand.Reader, bits)
//	})
//
//	// Do other work...
//
//	key, err := future.Await()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Using timeout:
//
//	key, err := future.AwaitWithTimeout(50 * time.Millisecond)
//	if errors.Is(err, async.ErrTimeout) {
//		log.Println("Operation timed out")
//	}
package async
