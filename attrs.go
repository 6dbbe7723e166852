package behavioral

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/pthm/behavioral/lib/dom"
)

// HostAttrs returns the attributes that make an element a host for the
// given behaviors. The is value is stamped up front so the element upgrades
// at parse time without the auto-loader.
//
//	<div { behavioral.HostAttrs("reveal", "logger")... }>
func HostAttrs(names ...string) templ.Attributes {
	return templ.Attributes{
		BehaviorAttr: strings.Join(names, " "),
		IsAttr:       CompositeHostName(names),
	}
}

// TriggerAttrs returns the invoker attributes that send command to the
// element with id targetID when a button carrying them is activated.
//
//	<button { behavioral.TriggerAttrs(panelID, "--toggle")... }>Toggle</button>
func TriggerAttrs(targetID, command string) templ.Attributes {
	return templ.Attributes{
		dom.AttrCommandFor: targetID,
		dom.AttrCommand:    command,
	}
}

// PayloadTriggerAttrs is TriggerAttrs plus an encoded payload that the host
// decodes and hands to command handlers.
func (rt *Runtime) PayloadTriggerAttrs(targetID, command string, payload map[string]any) (templ.Attributes, error) {
	attrs := TriggerAttrs(targetID, command)
	if len(payload) == 0 {
		return attrs, nil
	}
	encoded, err := rt.EncodePayload(command, payload)
	if err != nil {
		return nil, err
	}
	attrs[PayloadAttr] = encoded
	return attrs, nil
}

// NewHostID returns a fresh element id for pairing hosts with their
// invokers, such as "panel-1b9d6bcd".
func NewHostID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

var tagName = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// HostElement renders a tag host element with attrs, wrapping children.
// Attributes render in name order. A true bool renders as a bare attribute
// and false omits it.
func HostElement(tag string, attrs templ.Attributes, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !tagName.MatchString(tag) {
			return fmt.Errorf("behavioral: invalid tag name %q", tag)
		}

		var sb strings.Builder
		sb.WriteString("<" + tag)
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := attrs[k].(type) {
			case bool:
				if v {
					sb.WriteString(" " + html.EscapeString(k))
				}
			default:
				fmt.Fprintf(&sb, ` %s="%s"`, html.EscapeString(k), html.EscapeString(fmt.Sprint(v)))
			}
		}
		sb.WriteString(">")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}
