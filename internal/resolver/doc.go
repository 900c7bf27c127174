// Package resolver walks a parsed configuration document and turns it into a
// graph of constructed instances.
//
// The walk is a synchronous recursive descent. Instance-request nodes claim a
// singleton record before their parameters are resolved, so a parameter that
// refers back to the same name receives the existing record as a handle
// instead of re-entering construction. Forward references work the same way:
// the handle's value is backfilled when the target completes, and any name
// still pending at the end of the pass fails the whole pass.
//
// Every error is wrapped with the document path and identity chain that led
// to it. No partial graph is ever returned.
package resolver
