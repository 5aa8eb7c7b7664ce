// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through connection manager setup, one-time startup work, HTTP
// handler construction, and finally graceful shutdown.
//
// Schema setup is not a boot step here: it runs from the connection
// manager's OnReady hook each time MongoDB becomes reachable.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "kaziocha",     // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // validate MongoDB URI, token and timeout settings
	ConnectDB:      ConnectDB,      // build the connection manager and return DBDeps
	Startup:        Startup,        // apply handler timeouts
	BuildHandler:   BuildHandler,   // build the HTTP router + middleware stack
	Shutdown:       Shutdown,       // close the connection manager on shutdown
}
