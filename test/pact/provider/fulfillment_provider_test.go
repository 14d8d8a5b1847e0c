//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/Apurer/go-fulfillment-server/test/pact"

	fulfillmentserver "github.com/Apurer/go-fulfillment-server/go"
	fulfillmentmemory "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/memory"
	fulfillmentobs "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/observability"
	fulfillmentworkflows "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/workflows"
	fulfillmentapp "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	fulfillmentdomain "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	fulfillmentports "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestFulfillmentProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogSeeded: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateOrderPlaced: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedOrder(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo    *fulfillmentmemory.Repository
	service fulfillmentports.Service
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	repo := fulfillmentmemory.NewRepository()
	service := fulfillmentobs.New(fulfillmentapp.NewService(repo))
	workflows := fulfillmentworkflows.NewInlineCheckoutWorkflows(service)

	handlers := fulfillmentserver.ApiHandleFunctions{
		OrdersAPI: fulfillmentserver.NewOrdersAPI(service, workflows),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = fulfillmentserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{
		repo:    repo,
		service: service,
		server:  server,
	}
}

// reset returns the store to the seeded-catalog baseline every interaction
// starts from.
func (a *contractProviderApp) reset() {
	a.repo.Reset()
	farmerID, retailerID := int64(100), int64(20)
	a.repo.SeedProduct(fulfillmentdomain.Product{
		ID:         pacttest.CheckoutProductID,
		Quantity:   50,
		PriceCents: 250,
		FarmerID:   &farmerID,
		RetailerID: &retailerID,
	})
}

func (a *contractProviderApp) seedOrder(t testing.TB) {
	t.Helper()
	_, err := a.service.Checkout(context.Background(), fulfillmenttypes.CheckoutInput{
		CustomerID: pacttest.CheckoutCustomerID,
		Lines:      []fulfillmenttypes.CartLine{{ProductID: pacttest.CheckoutProductID, Quantity: 2}},
	})
	require.NoError(t, err)
}
