package handlers

import (
	"context"
	"net/http"
	"os"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/downloads"
	"storefront/internal/identity"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/stores/kafka"
	"storefront/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Store interfaces wrap the concrete Confs so handlers can be exercised
// against fakes in tests.

type CatalogStore interface {
	List(ctx context.Context, category, search string, limit int) ([]products.Product, error)
	GetBySlug(ctx context.Context, slug string) (products.Product, error)
	GetByID(ctx context.Context, id string) (products.Product, error)
	GetFeatured(ctx context.Context) ([]products.Product, error)
	Insert(ctx context.Context, np products.NewProduct) (products.Product, error)
	Update(ctx context.Context, id string, up products.UpdateProduct) (products.Product, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

type CartStore interface {
	Get(ctx context.Context, id identity.Identity) (cart.View, error)
	AddItem(ctx context.Context, id identity.Identity, productID string, qty int) error
	UpdateQty(ctx context.Context, id identity.Identity, productID string, qty int) error
	RemoveItem(ctx context.Context, id identity.Identity, productID string) error
	Clear(ctx context.Context, id identity.Identity) error
}

type OrderStore interface {
	Create(ctx context.Context, email string, items []orders.LineItem, amountTotalCents int64,
		currency, paymentSessionID string, id identity.Identity) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	GetByPaymentSession(ctx context.Context, paymentSessionID string) (orders.Order, error)
}

type DownloadStore interface {
	Resolve(ctx context.Context, token string) (downloads.Result, error)
	MarkUsed(ctx context.Context, token string) error
}

type Handler struct {
	p        CatalogStore
	c        CartStore
	o        OrderStore
	d        DownloadStore
	gateway  checkout.Gateway
	k        *kafka.Conf
	validate *validator.Validate
}

func NewHandler(p CatalogStore, c CartStore, o OrderStore, d DownloadStore,
	gateway checkout.Gateway, k *kafka.Conf) *Handler {
	return &Handler{
		p:        p,
		c:        c,
		o:        o,
		d:        d,
		gateway:  gateway,
		k:        k,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, keys *auth.Keys, p CatalogStore, c CartStore,
	o OrderStore, d DownloadStore, gateway checkout.Gateway, k *kafka.Conf) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(keys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(p, c, o, d, gateway, k)
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.Use(m.Identity())

		v1.GET("/products/list", h.ListProducts)
		v1.GET("/products/view/:slug", h.GetProductBySlug)
		v1.GET("/products/featured", h.GetFeaturedProducts)
		v1.GET("/products/categories", h.GetCategories)
		v1.POST("/products/create", h.CreateProduct)
		v1.PUT("/products/update/:id", h.UpdateProduct)
		v1.DELETE("/products/delete/:id", h.DeleteProduct)

		v1.GET("/cart", h.GetCart)
		v1.POST("/cart/add-item", h.AddCartItem)
		v1.PUT("/cart/update-qty", h.UpdateCartQty)
		v1.DELETE("/cart/remove-item/:productID", h.RemoveCartItem)
		v1.DELETE("/cart/clear", h.ClearCart)

		v1.POST("/checkout/session", h.CreateCheckoutSession)

		v1.POST("/orders/create", h.CreateOrder)
		v1.GET("/orders/list", h.ListOrders)
		v1.GET("/orders/by-session/:sessionID", h.GetOrderByPaymentSession)

		v1.GET("/downloads/resolve/:token", h.ResolveDownload)
		v1.POST("/downloads/mark-used/:token", h.MarkDownloadUsed)
	}

	return r
}

// identityOf applies the precedence rule once per request: verified claims
// win, the client-persisted session header is the fallback.
func identityOf(c *gin.Context) identity.Identity {
	var userID string
	if claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims); ok {
		userID = claims.Subject
	}
	return identity.Resolve(userID, c.GetHeader("X-Session-Id"))
}

func claimsEmail(c *gin.Context) string {
	if claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims); ok {
		return claims.Email
	}
	return ""
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
