package cache

// no exported sentinel errors: spec.md §4.4's Get/Put surface communicates
// eligibility and failure purely through boolean return values, matching
// the fail-closed-but-silent contract the spec describes ("any allocation
// or I/O failure during load leaves the table unchanged and returns
// false").
