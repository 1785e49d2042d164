// Package linkage wires the per-host auth registry, connected accounts and
// the module resolver into one value an HTTP adapter can serve.
package linkage

import (
	"errors"
	"fmt"
	"time"

	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/internal/logging"
	"github.com/lborres/linkage/pkg/cache"
	"github.com/lborres/linkage/pkg/crypto"
	"github.com/lborres/linkage/services"
)

// DefaultLoginURL is where the login page sends the browser. The login
// service redirects back to "/?token=...".
const DefaultLoginURL = "/auth/login"

var (
	ErrStoreProviderRequired = core.ErrStoreProviderRequired
	ErrHTTPAdapterRequired   = errors.New("HTTP adapter is required")
	ErrSecretRequired        = core.ErrSecretRequired
	ErrSecretTooShort        = core.ErrSecretTooShort
)

// HTTPAdapter binds routes for a Linkage to a concrete web framework
type HTTPAdapter interface {
	RegisterRoutes(l *Linkage) error
}

type Config struct {
	// Secret seals stored OAuth tokens
	Secret string
	Stores core.StoreProvider
	HTTP   HTTPAdapter

	CookieDomain string
	Production   bool

	// Optional config
	// Plugins are extra endpoints, routed ahead of the page catch-all. Their
	// operation IDs must be ones the HTTP adapter can serve.
	Plugins           []core.Endpoint
	Verifier          core.IdentityVerifier
	Bundler           services.Bundler
	Zoho              services.ZohoConfig
	ProfileURL        string
	LoginURL          string
	Root              string
	TransformCacheTTL time.Duration
	Logger            logging.Logger
}

type Linkage struct {
	Registry  *core.Registry
	Endpoints *services.EndpointRegistry
	Modules   *services.ModuleResolver
	Zoho      *services.ZohoConnector
	Accounts  *services.AccountService
	Profiles  *services.ProfileClient
	Logger    logging.Logger

	Root       string
	LoginURL   string
	Production bool
}

func New(config Config) (*Linkage, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < core.MinSecretLength {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, core.MinSecretLength)
	}
	if config.Stores == nil {
		return nil, ErrStoreProviderRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	root := config.Root
	if root == "" {
		root = "."
	}

	loginURL := config.LoginURL
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	bundler := config.Bundler
	if bundler == nil {
		esbuild, err := services.NewEsbuildBundler(root)
		if err != nil {
			return nil, err
		}
		bundler = esbuild
	}

	// Development edits must show up on reload, so only production caches
	var transforms *cache.InMemory[string]
	if config.Production {
		transforms = cache.NewInMemory[string](cache.Config{TTL: config.TransformCacheTTL})
	}

	registry, err := core.NewRegistry(core.RegistryConfig{
		Stores:       config.Stores,
		CookieDomain: config.CookieDomain,
		Production:   config.Production,
		Verifier:     config.Verifier,
	})
	if err != nil {
		return nil, err
	}

	sealer, err := crypto.NewSealer(config.Secret)
	if err != nil {
		return nil, err
	}
	accounts, err := services.NewAccountService(sealer)
	if err != nil {
		return nil, err
	}

	endpoints := services.NewEndpointRegistry()
	if len(config.Plugins) > 0 {
		if err := endpoints.RegisterPlugin(config.Plugins); err != nil {
			return nil, err
		}
	}

	l := &Linkage{
		Registry:   registry,
		Endpoints:  endpoints,
		Modules:    services.NewModuleResolver(bundler, nil, transforms),
		Zoho:       services.NewZohoConnector(config.Zoho),
		Accounts:   accounts,
		Profiles:   services.NewProfileClient(config.ProfileURL, config.Zoho.Timeout),
		Logger:     logger,
		Root:       root,
		LoginURL:   loginURL,
		Production: config.Production,
	}

	if err := config.HTTP.RegisterRoutes(l); err != nil {
		return nil, err
	}

	return l, nil
}
