// Package lists maps the Lists SOAP service onto typed containers: a
// keyed collection of lists, per-list schemas and row caches, row-level
// change tracking, and the batched save protocol with per-command
// partial-failure semantics.
package lists

// ServicePath is the Lists web service endpoint, relative to the site.
const ServicePath = "_vti_bin/Lists.asmx"

const soapActionPrefix = "http://schemas.microsoft.com/sharepoint/soap/"

// Templates maps the human template names accepted by Create onto the
// service's numeric template identifiers.
var Templates = map[string]int{
	"Announcements":                 104,
	"Contacts":                      105,
	"Custom List":                   100,
	"Custom List in Datasheet View": 120,
	"DataSources":                   110,
	"Discussion Board":              108,
	"Document Library":              101,
	"Events":                        106,
	"Form Library":                  115,
	"Issues":                        1100,
	"Links":                         103,
	"Picture Library":               109,
	"Survey":                        102,
	"Tasks":                         107,
}
