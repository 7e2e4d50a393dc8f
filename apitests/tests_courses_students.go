package apitests

import (
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/servicedef"
)

// createCourse creates a course taught by a freshly created member and
// schedules best-effort cleanup for both.
func createCourse(t *T, params servicedef.CourseParams) int {
	resp := t.MustPost(servicedef.CoursesCollection, params)
	t.Validate(resp).StatusCode(201).HasKey("id")
	id := resp.Body.GetByKey("id").IntValue()
	require.Greater(t, id, 0, "created course id should be positive, body: %s",
		resp.Body.JSONString())
	t.Defer(func() {
		t.bestEffortDelete(servicedef.DetailEndpoint(servicedef.CoursesCollection, id))
	})
	return id
}

func DoCourseTests(t *T) {
	t.RequireResource(servicedef.CoursesCollection)
	t.RequireResource(servicedef.MembersCollection)

	t.Run("create links the faculty member", func(t *T) {
		facultyID := t.CreateMember(servicedef.MemberParams{
			FirstName: "Course", LastName: "Faculty", Designation: "Professor",
		})
		id := createCourse(t, servicedef.CourseParams{
			CourseName: "Contract Testing 101",
			FacultyID:  facultyID,
			StartDate:  "2026-09-01",
			EndDate:    "2026-12-15",
			Category:   "QA",
		})

		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.CoursesCollection, id))
		t.Validate(resp).
			StatusCode(200).
			HasKeys("id", "coursename", "facultyname", "category").
			KeyEquals("coursename", ldvalue.String("Contract Testing 101"))
		// The read shape expands the faculty reference into the member record.
		faculty := resp.Body.GetByKey("facultyname")
		require.Equal(t, ldvalue.ObjectType, faculty.Type(),
			"facultyname should be the expanded member object, got %s", faculty.JSONString())
		require.Equal(t, facultyID, faculty.GetByKey("id").IntValue())
	})

	t.Run("partial update changes only the named field", func(t *T) {
		facultyID := t.CreateMember(servicedef.MemberParams{
			FirstName: "Patch", LastName: "Faculty", Designation: "Professor",
		})
		id := createCourse(t, servicedef.CourseParams{
			CourseName: "Before Rename",
			FacultyID:  facultyID,
			StartDate:  "2026-09-01",
			EndDate:    "2026-12-15",
			Category:   "QA",
		})

		resp := t.MustPatch(servicedef.DetailEndpoint(servicedef.CoursesCollection, id),
			map[string]string{"coursename": "After Rename"})
		t.Validate(resp).
			Success().
			KeyEquals("coursename", ldvalue.String("After Rename")).
			KeyEquals("category", ldvalue.String("QA"))
	})
}

func DoStudentTests(t *T) {
	t.RequireResource(servicedef.StudentsCollection)
	t.RequireResource(servicedef.CoursesCollection)
	t.RequireResource(servicedef.MembersCollection)

	t.Run("create then read round-trips the enrollment", func(t *T) {
		facultyID := t.CreateMember(servicedef.MemberParams{
			FirstName: "Student", LastName: "Faculty", Designation: "Professor",
		})
		courseID := createCourse(t, servicedef.CourseParams{
			CourseName: "Enrollment Target",
			FacultyID:  facultyID,
			StartDate:  "2026-09-01",
			EndDate:    "2026-12-15",
			Category:   "QA",
		})

		resp := t.MustPost(servicedef.StudentsCollection, servicedef.StudentParams{
			Name:     "API Test Student",
			CourseID: courseID,
			Email:    ldvalue.NewOptionalString("api_test@example.com"),
			Skills:   ldvalue.NewOptionalString("Go, HTTP, Testing"),
		})
		t.Validate(resp).StatusCode(201).HasKeys("id", "name", "course_id")
		id := resp.Body.GetByKey("id").IntValue()
		require.Greater(t, id, 0)
		t.Defer(func() {
			t.bestEffortDelete(servicedef.DetailEndpoint(servicedef.StudentsCollection, id))
		})

		read := t.MustGet(servicedef.DetailEndpoint(servicedef.StudentsCollection, id))
		t.Validate(read).
			StatusCode(200).
			KeyEquals("name", ldvalue.String("API Test Student")).
			KeyEquals("course_id", ldvalue.Int(courseID)).
			KeyEquals("email", ldvalue.String("api_test@example.com"))
	})

	t.Run("optional fields may be omitted", func(t *T) {
		facultyID := t.CreateMember(servicedef.MemberParams{
			FirstName: "Minimal", LastName: "Faculty", Designation: "Professor",
		})
		courseID := createCourse(t, servicedef.CourseParams{
			CourseName: "Minimal Enrollment",
			FacultyID:  facultyID,
			StartDate:  "2026-09-01",
			EndDate:    "2026-12-15",
			Category:   "QA",
		})

		resp := t.MustPost(servicedef.StudentsCollection, servicedef.StudentParams{
			Name:     "Minimal Student",
			CourseID: courseID,
		})
		t.Validate(resp).StatusCode(201).HasKey("id")
		id := resp.Body.GetByKey("id").IntValue()
		t.Defer(func() {
			t.bestEffortDelete(servicedef.DetailEndpoint(servicedef.StudentsCollection, id))
		})
	})
}
