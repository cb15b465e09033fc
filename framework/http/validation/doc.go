// Package validation checks the role addresses the introspection API
// receives before they reach the container.
//
//	v := validation.Make(map[string]string{
//	    "role": "github.com.km-arc.go-rapla.app.Resources",
//	    "hint": "ical",
//	}, validation.Rules{
//	    "role": "required|role|max:512",
//	    "hint": "sometimes|hint|max:128",
//	})
//
//	if v.Fails() {
//	    // {"errors": {"role": ["The role must be a dotted type name."]}}
//	}
//
// Rules:
//   - required: present and non-empty
//   - sometimes: skip the field's remaining rules when it is empty
//   - role: dot-separated identifiers, dashes allowed after the first rune
//   - hint: letters, digits and . _ - *
//   - max:n: at most n runes
//   - in:a,b,c: one of the listed values
//   - regex:pattern: matches pattern
//
// Fields are checked in name order; each field stops at its first failing
// rule.
package validation
