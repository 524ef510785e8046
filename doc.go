// Package yupee loads small component definitions into an HTML document
// and keeps them painted from a shared data model.
//
// # Core Concepts
//
// A Registry owns the document and a FIFO load queue. Each queued location
// is handed to the Driver, which runs the definition found there; the
// definition calls Registry.Start to get its Component and configures it.
// Definitions can queue further loads, which run after the current one.
// When the queue is empty the registry fires EventReady.
//
//	r := yupee.New(doc, yupee.WithDriver(catalog))
//	r.Ready(func(...any) error { return r.Pages().Init(ctx) })
//	if err := r.Boot(ctx); err != nil {
//	    return err
//	}
//
// Components form a tree. Each one wraps a container element, may own
// children, and may observe a Model:
//
//	c := r.Start(yupee.ComponentConfig{Model: r.Model().Sub("notes"), Template: "note"})
//	c.SetRenderer(yupee.RendererFunc(renderNotes))
//	c.AddChild(yupee.ChildHTML("<button>Add</button>").WithID("add").OnClick(nil))
//
// # Models
//
// A Model is a keyed store. Changing it repaints nothing until Update (or
// SetAndUpdate, PushAndUpdate) runs, which repaints every attached
// component in attachment order. Sub-models alias the nested map under
// their major key, so the application model serializes as one document.
//
// # Definitions
//
// Definitions are either Go functions registered on a Catalog, or HCL
// component files read by FSDriver (see package lib/yupfile). Elements
// marked with a data-yup attribute are loaded into themselves by Boot.
//
// # Communication
//
// Components talk through the registry's Bus: Produce/Consume publish on
// named data channels, Listen/Fire on arbitrary events. AutoClick
// publishes a clicked component's id on EventYupID.
//
// # Pages
//
// Pages saves the application model through the driver before a
// whole-page navigation and restores it on the next page, as plain JSON or
// as a signed (optionally encrypted) snapshot when a seal key is set.
package yupee
