// Package mvc serves controllers over net/http. A Controller declares the
// parameters it binds; every request gets a fresh binding.Result that opt-in
// parameters record their failures into, while opt-out failures short-circuit
// to the error mappers. The view named by the handler's Response is rendered
// through a render.Dispatcher into a buffer and written only on success.
//
// App assembles the pieces from a config.Config:
//
//	app := mvc.New(mvc.WithConfig(cfg), mvc.WithEngines(component.New(...)))
//	if err := app.Err(); err != nil {
//		return err
//	}
//	mux.Handle("GET /search", app.Handler(searchController))
package mvc
