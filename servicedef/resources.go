// Package servicedef defines the wire types and endpoint names of the
// resource service under test, as its REST API actually serializes them.
package servicedef

import (
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Resource collection endpoint names, relative to the API prefix.
const (
	MembersCollection  = "members"
	CoursesCollection  = "courses"
	StudentsCollection = "students"
	UsersCollection    = "users"
)

// AllCollections lists every collection the service is expected to expose.
// The harness probes these at startup; tests gate on the results.
var AllCollections = []string{
	MembersCollection,
	CoursesCollection,
	StudentsCollection,
	UsersCollection,
}

// DetailEndpoint returns the item endpoint for one resource id.
func DetailEndpoint(collection string, id int) string {
	return fmt.Sprintf("%s/%d", collection, id)
}

// Page is the pagination envelope every collection endpoint returns.
type Page struct {
	Count    int                    `json:"count"`
	Next     ldvalue.OptionalString `json:"next"`
	Previous ldvalue.OptionalString `json:"previous"`
	Results  []ldvalue.Value        `json:"results"`
}

// MemberParams is the write shape for members.
type MemberParams struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Designation string `json:"designation"`
	Image       string `json:"image"`
}

// CourseParams is the write shape for courses. FacultyID references an
// existing member.
type CourseParams struct {
	CourseName string `json:"coursename"`
	FacultyID  int    `json:"facultyname_id"`
	StartDate  string `json:"startdate"`
	EndDate    string `json:"enddate"`
	Category   string `json:"category"`
}

// StudentParams is the write shape for students. CourseID references an
// existing course.
type StudentParams struct {
	Name      string                 `json:"name"`
	CourseID  int                    `json:"course_id"`
	Email     ldvalue.OptionalString `json:"email,omitempty"`
	ResumeURL ldvalue.OptionalString `json:"resume_url,omitempty"`
	Skills    ldvalue.OptionalString `json:"skills,omitempty"`
}
