//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "fulfillment-api"
	ConsumerName = "storefront-web"

	StateCatalogSeeded = "catalog products seeded"
	StateOrderPlaced   = "customer 7 has a placed order"
	StateOrderMissing  = "no order with id 424242"
)

const (
	CheckoutCustomerID int64 = 7
	CheckoutProductID  int64 = 1
	MissingOrderID     int64 = 424242
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckoutPayload provides stable request data for pact interactions.
func ExampleCheckoutPayload() map[string]any {
	return map[string]any{
		"lines": []map[string]any{
			{"productId": CheckoutProductID, "quantity": 2},
		},
		"idempotencyKey": "pact-checkout-1",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
