// Package formdesk ties the form and submissions-table engines to an
// insurance API backend. Most callers only need NewSession; the sub-packages
// under pkg/ expose each engine on its own.
package formdesk
