package parser

import "go.uber.org/fx"

// Module provides the route catalogue
var Module = fx.Module("parser",
	fx.Provide(
		fx.Annotate(
			NewSwaggerParser,
			fx.As(new(Catalogue)),
		),
		NewAdjuster,
	),
)
