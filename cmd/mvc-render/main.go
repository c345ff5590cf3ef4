// Command mvc-render renders views through the engine registry and lists the
// parameters an OpenAPI document declares.
//
// Usage:
//
//	# Render a template with models from the command line
//	mvc-render render users/show.tpl --templates ./views --model user=ada
//
//	# Prompt for models that were not supplied
//	mvc-render render users/show.tpl --templates ./views --require user --interactive
//
//	# List the binding parameters of every operation
//	mvc-render params api.yaml
//
//	# List one operation
//	mvc-render params api.yaml searchProducts
package main

func main() {
	Execute()
}
