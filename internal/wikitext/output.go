package wikitext

// Output is the result of rendering one page revision.
type Output struct {
	// Text is the expanded wikitext with <nowiki> sections restored verbatim.
	Text string
	// HTML is the rendered page body.
	HTML string
	// Links holds the prefixed titles of wiki links, in first-seen order.
	Links []string

	// PendingPages maps target title text to content for pages that should
	// be created once this revision is saved. Nil means none were requested.
	PendingPages map[string]string
}

// AddPendingPage queues a page for creation; a later call for the same title text wins.
func (o *Output) AddPendingPage(titleText, content string) {
	if o.PendingPages == nil {
		o.PendingPages = make(map[string]string)
	}
	o.PendingPages[titleText] = content
}

// TakePendingPages returns the queued pages and clears them from o.
func (o *Output) TakePendingPages() map[string]string {
	pending := o.PendingPages
	o.PendingPages = nil
	return pending
}
