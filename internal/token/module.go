package token

import "go.uber.org/fx"

// Module provides the token issuer to fx graphs.
var Module = fx.Provide(NewIssuer)
