package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage"
	"github.com/lborres/linkage/services"
)

type Adapter struct {
	app     *fiber.App
	linkage *linkage.Linkage
}

var _ linkage.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

type route struct {
	handler fiber.Handler

	// identify resolves the current user before the handler runs
	identify bool
}

func (a *Adapter) routes() map[string]route {
	return map[string]route{
		services.OpStyles:         {handler: a.styles},
		services.OpClientBundle:   {handler: a.clientBundle},
		services.OpStyledSystem:   {handler: a.styledSystem},
		services.OpSourceModule:   {handler: a.sourceModule},
		services.OpLogout:         {handler: a.logout},
		services.OpZohoConnect:    {handler: a.zohoConnect},
		services.OpZohoCallback:   {handler: a.zohoCallback, identify: true},
		services.OpZohoAccounts:   {handler: a.zohoAccounts, identify: true},
		services.OpZohoDisconnect: {handler: a.zohoDisconnect, identify: true},
		services.OpHealth:         {handler: a.health},
		services.OpRenderPage:     {handler: a.renderPage, identify: true},
		services.OpDiagnostics:    {handler: a.diagnostics},
	}
}

// RegisterRoutes binds every registered endpoint, in dispatch order, to the
// handler for its operation ID
func (a *Adapter) RegisterRoutes(l *linkage.Linkage) error {
	a.linkage = l

	routes := a.routes()
	for _, ep := range l.Endpoints.Endpoints() {
		r, ok := routes[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for operation %q (%s %s)", ep.Metadata.OperationID, ep.Method, ep.Path)
		}

		h := r.handler
		if r.identify {
			h = a.withIdentity(h)
		}
		a.app.Add([]string{ep.Method}, ep.Path, h)
	}

	return nil
}
