// Package behavioral attaches named, reusable behaviors to HTML elements.
//
// An element opts in with a space-separated behavior attribute:
//
//	<dialog behavior="reveal logger" reveal-delay="150ms">...</dialog>
//
// Each distinct behavior set maps to one customized built-in element, the
// host, named "behavioral-" plus the sorted names joined with "-"
// ("behavioral-logger-reveal" above). When a host connects it instantiates a
// fresh behavior per name, wires the behavior's event listeners, runs its
// Connected hook and starts routing commands to it. On disconnect the
// listeners are removed and the instances are dropped.
//
// # Definitions and the Registry
//
// A Definition is immutable metadata: the behavior name, the attribute keys
// it reads and the command tokens it accepts. Attribute keys are prefixed
// with the behavior name ("reveal-delay") unless they are bare standard
// attributes such as hidden or open; command tokens start with "--".
//
//	var Definition = behavioral.MustDefinition("reveal", Config{}, behavioral.Commands(
//	    "--show", "--hide", "--toggle",
//	))
//
// A schema struct declares its keys with attr tags. Running
// 'behavioral generate' writes AttributeKeys and ReadAttributes methods for
// it, so no reflection runs at request time.
//
// A Registry maps names to definitions and factories. Registries are plain
// values; construct one per application (or per test) and hand it to New.
//
// # Behaviors
//
// A Factory builds the instance for one element. The instance declares its
// listeners as a table and implements the optional Connector, Disconnector,
// AttributeObserver and CommandHandler interfaces as needed. Hooks adapts
// plain functions.
//
// Behaviors are isolated from each other: a factory error, a panic in a
// hook or handler, or a nil instance is logged as a BehaviorError at Error
// level and affects only that behavior on that element.
//
// # Commands
//
// A button with commandfor and command attributes is an invoker. Clicking
// it dispatches a command event at the target; the host hands it to every
// active CommandHandler in activation order. Trigger markup is built with
// TriggerAttrs, or PayloadTriggerAttrs to carry an encoded payload in
// data-command-payload:
//
//	<button { behavioral.TriggerAttrs("faq", "--toggle")... }>FAQ</button>
//
// Runtime.Invoke sends a command programmatically.
//
// # Auto-loading and Stamping
//
// The platform fixes an element's is value when it is created, so a plain
// element cannot become a host after parsing. The AutoLoader scans the
// document and every later insertion, defines the required hosts and
// replaces each candidate with a new host element carrying the same
// attributes and children.
//
// On the server, Middleware and StampHTML set the is attribute before the
// markup reaches the browser, and the stamp command does the same for
// static files. Stamping never runs behavior code.
//
// # Testing
//
// TestMount parses markup with the auto-loader enabled and captures every
// log record:
//
//	td, err := behavioral.TestMount(reg, `<div id="p" behavior="reveal" hidden></div>`)
//	td.Invoke("p", "--show", nil)
//	if td.Logs.Count(slog.LevelError) != 0 { ... }
package behavioral
