// Package pagination provides sequential, pull-driven pagination over the
// ServiceNOW table API.
//
// The table API takes sysparm_offset and sysparm_limit and reports no total
// count, so a run keeps fetching until a page comes back empty. Pages are
// fetched strictly on demand: one request is in flight at a time and
// abandoning the range loop leaves nothing running.
//
// Example usage:
//
//	p := pagination.New(pagination.PageFetcherFunc(snowClient.GetPage), logger)
//	for page, err := range p.Pages(ctx, query, 1000, filter.ByHardwareStatus("In Use")) {
//		if err != nil {
//			return err
//		}
//		process(page.Result)
//	}
//
// The paginator:
//   - Starts at offset 0 and advances by limit+1 after each non-empty page
//   - Stops at the first empty page
//   - Fails with ErrUndecodablePage when a successful body is not JSON
//   - Applies an optional filter to each page before yielding it
//   - Yields fetch errors once and stops; it never swallows them
package pagination
