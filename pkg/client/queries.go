package client

import (
	"fmt"

	"github.com/yosida95/uritemplate/v3"
)

// TableRelCI is the CI relationship table.
const TableRelCI = "cmdb_rel_ci"

// Default page sizes of the built-in queries.
const (
	DefaultHardwarePageSize = 1000
	DefaultServersPageSize  = 10
)

var tablePathTemplate = uritemplate.MustNew("/api/now/table/{table}")

// TablePath returns the table API path for table.
func TablePath(table string) string {
	path, err := tablePathTemplate.Expand(uritemplate.Values{
		"table": uritemplate.String(table),
	})
	if err != nil {
		// The template has a single simple variable; expansion cannot fail.
		panic(fmt.Sprintf("expand table path: %v", err))
	}
	return path
}

// PageQuery appends the offset and limit parameters to query.
func PageQuery(query string, limit, offset int) string {
	return fmt.Sprintf("%s&sysparm_offset=%d&sysparm_limit=%d", query, offset, limit)
}

// PhysicalHardwareQuery selects server CIs allocated to service applications,
// excluding virtual models and design support services.
var PhysicalHardwareQuery = TablePath(TableRelCI) +
	"?sysparm_query=" +
	"type.name%3DAllocated%20to%3A%3AAllocated%20from" +
	"%5Echild.model_id.nameNOT%20LIKEvirtual" +
	"%5Echild.sys_class_nameINSTANCEOFcmdb_ci_server" +
	"%5Eparent.sys_class_nameINSTANCEOFu_service_application" +
	"%5Echild.hardware_status%3DIn Use" +
	"%5Eu_support_serviceNOT%20LIKEdesign" +
	"%5Eu_support_service!%3D91401c92ff308d4c8193dc8c3a6d0e6e" +
	"%5EORu_support_service%3DNULL" +
	"%5Eu_support_service!%3Dbdd45892558a52000221ce673d64e498" +
	"%5EORu_support_service%3DNULL" +
	"%5EORDERBYchild.sys_id" +
	"&sysparm_fields=" +
	"child," +
	"child.sys_id," +
	"child.assigned_to," +
	"child.assigned_to.user_name," +
	"child.hardware_status," +
	"child.ip_address," +
	"child.cpu_name," +
	"child.os," +
	"child.model_id," +
	"child.cpu_count," +
	"child.ram," +
	"child.disk_space," +
	"parent.ref_u_service_application.u_software_product.u_iap_application_id," +
	"child.sys_class_name," +
	"parent.sys_class_name" +
	"&sysparm_exclude_reference_link=true" +
	"&sysparm_display_value=true"

// PhysicalServersQuery selects in-use server CIs allocated to service
// applications, including the child.virtual flag.
var PhysicalServersQuery = TablePath(TableRelCI) +
	"?sysparm_query=" +
	"type.name=Allocated to::Allocated from" +
	"^child.sys_class_nameINSTANCEOFcmdb_ci_server" +
	"^parent.sys_class_nameINSTANCEOFu_service_application" +
	"^child.model_id.nameNOT LIKEvirtual" +
	"^child.hardware_status=In Use" +
	"^ORDERBYchild.sys_id" +
	"&sysparm_fields=" +
	"child," +
	"child.sys_id," +
	"child.virtual," +
	"child.assigned_to," +
	"child.assigned_to.user_name," +
	"child.hardware_status," +
	"child.ip_address," +
	"child.cpu_name," +
	"child.os," +
	"child.model_id.name," +
	"child.cpu_count," +
	"child.ram," +
	"child.disk_space," +
	"parent.ref_u_service_application.u_software_product.u_iap_application_id," +
	"child.sys_class_name," +
	"parent.sys_class_name" +
	"&sysparm_exclude_reference_link=true" +
	"&sysparm_display_value=true"
