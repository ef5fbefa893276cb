// Package autocreate lets a page ask for other pages to be created when it
// is saved.
//
// Authors write {{#createpage:Title|Content}} in page source. While the
// page is parsed, the Collector validates each call and records the
// (title, content) pair on the parse output; nothing is written. Once the
// revision is stored, the Materializer drains those pairs and creates every
// target that does not exist yet. Existing pages are never touched.
//
// Auto-created pages are saved through the same pipeline as any other
// page, so their content is parsed too. A recursion budget carried in the
// context bounds how deep such chains can go: the Materializer hands
// budget-1 to the saves it performs, and the Collector refuses to queue
// anything once the budget reaches zero.
package autocreate
