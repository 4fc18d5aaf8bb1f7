// Package classify buckets a usage report into weighted pattern categories
// and derives a complexity score, level and recommendations from them.
package classify

// Category names as they appear in reports.
const (
	DirectImport       = "Direct Import & Usage"
	AliasedImport      = "Named Import with Alias"
	NamespaceImport    = "Namespace Import"
	VariableAssignment = "Variable Assignment"
	ConditionalAssign  = "Conditional Assignment"
	ObjectMapping      = "Object Mapping"
	ArrayMapping       = "Array Mapping"
	DynamicMapping     = "Dynamic Mapping"
	HOCWrapping        = "HOC Wrapping"
	LazyLoading        = "Lazy Loading"
	DynamicImport      = "Dynamic Import"
	Destructuring      = "Destructuring Usage"
	Memoized           = "Memoized Components"
	ForwardRef         = "Forward Ref"
	PortalUsage        = "Portal Usage"
	ContextIntegration = "Context Integration"
)

// Category is one entry of the static pattern catalog.
type Category struct {
	Name        string `json:"name"`
	Weight      int    `json:"weight"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

var catalog = []Category{
	{DirectImport, 1, "Simple import and direct JSX usage", `import Button from "lib"; <Button />`},
	{AliasedImport, 2, "Named import with renaming", `import { Button as MyButton } from "lib"; <MyButton />`},
	{NamespaceImport, 2, "Import entire namespace", `import * as Lib from "lib"; <Lib.Button />`},
	{VariableAssignment, 3, "Assigning components to variables", `const MyButton = Button; <MyButton />`},
	{ConditionalAssign, 4, "Conditional component selection", `const Comp = condition ? Button : Input; <Comp />`},
	{ObjectMapping, 5, "Components stored in objects", `const map = {btn: Button}; <map.btn />`},
	{ArrayMapping, 5, "Components in arrays", `[Button, Input].map(Comp => <Comp />)`},
	{DynamicMapping, 6, "Runtime component selection", `components[type]`},
	{HOCWrapping, 7, "Higher-order component patterns", `withProps(Button)`},
	{LazyLoading, 6, "Lazy-loaded components", `lazy(() => import("lib/Button"))`},
	{DynamicImport, 7, "Runtime dynamic imports", `await import("lib/Button")`},
	{Destructuring, 4, "Destructured from objects", `const {Button} = Foundation; <Button />`},
	{Memoized, 5, "React.memo wrapped components", `memo(Button)`},
	{ForwardRef, 6, "forwardRef wrapped components", `forwardRef((props, ref) => <Button ref={ref} />)`},
	{PortalUsage, 8, "Components rendered in portals", `createPortal(<Button />, document.body)`},
	{ContextIntegration, 7, "Components from React context", `const {Button} = useContext(ThemeContext)`},
}

// Catalog returns a copy of the category catalog in its canonical order.
func Catalog() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Category, bool) {
	for _, c := range catalog {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
