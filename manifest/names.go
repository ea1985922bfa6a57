package manifest

import (
	"fmt"
	"unicode"
)

// reservedNames lists the built-in class names a runtime registers at
// bootstrap. A manifest may use them as bases or metaclasses but may not
// declare a class with one of these names.
var reservedNames = map[string]bool{
	"object":                     true,
	"type":                       true,
	"NoneType":                   true,
	"NotImplementedType":         true,
	"int":                        true,
	"bool":                       true,
	"float":                      true,
	"str":                        true,
	"tuple":                      true,
	"tuple_iterator":             true,
	"dict":                       true,
	"function":                   true,
	"method":                     true,
	"builtin_function_or_method": true,
	"method_descriptor":          true,
	"classmethod_descriptor":     true,
	"getset_descriptor":          true,
	"member_descriptor":          true,
	"wrapper_descriptor":         true,
	"method-wrapper":             true,
	"property":                   true,
	"classmethod":                true,
	"staticmethod":               true,
}

// IsReservedName reports whether name is a built-in class name.
func IsReservedName(name string) bool {
	return reservedNames[name]
}

func validateClassName(name string) error {
	if name == "" {
		return fmt.Errorf("class name is required")
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("class name %q is not an identifier", name)
	}
	if IsReservedName(name) {
		return fmt.Errorf("class name %q is reserved for a built-in class", name)
	}
	return nil
}
