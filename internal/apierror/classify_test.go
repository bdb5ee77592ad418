package apierror

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bodyErr(status int, body string) error {
	return &Error{Method: http.MethodPost, Path: "/appointments", Status: status, Body: []byte(body)}
}

func TestClassify_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "issues list",
			body: `{"error":{"issues":[{"path":["patient_id"],"message":"Required"},{"path":["items",0,"dose"],"message":"Too small"}]}}`,
			want: "patient_id: Required\nitems.0.dose: Too small",
		},
		{
			name: "plain json string",
			body: `"Appointment slot taken"`,
			want: "Appointment slot taken",
		},
		{
			name: "non-json text body",
			body: `Bad Gateway`,
			want: "Bad Gateway",
		},
		{
			name: "array of strings",
			body: `["first is bad","second is bad"]`,
			want: "first is bad, second is bad",
		},
		{
			name: "field error map keeps server order",
			body: `{"errors":{"last_name":["is required","too short"],"email":["is invalid"]}}`,
			want: "last_name: is required, too short\nemail: is invalid",
		},
		{
			name: "message field",
			body: `{"message":"Doctor not found"}`,
			want: "Doctor not found",
		},
		{
			name: "unrecognized shape is serialized",
			body: `{ "error": "invalid or expired token" }`,
			want: `{"error":"invalid or expired token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(bodyErr(http.StatusBadRequest, tt.body)))
		})
	}
}

func TestClassify_IssuesWinOverMessage(t *testing.T) {
	body := `{"message":"Validation failed","errors":{"x":["y"]},"error":{"issues":[{"path":["status"],"message":"Invalid enum value"}]}}`

	assert.Equal(t, "status: Invalid enum value", Classify(bodyErr(http.StatusUnprocessableEntity, body)))
}

func TestClassify_ErrorsWinOverMessage(t *testing.T) {
	body := `{"message":"Validation failed","errors":{"email":["has already been taken"]}}`

	assert.Equal(t, "email: has already been taken", Classify(bodyErr(http.StatusUnprocessableEntity, body)))
}

func TestClassify_EmptySummaryFallsThrough(t *testing.T) {
	body := `{"error":{"issues":[]},"message":"Nothing to update"}`

	assert.Equal(t, "Nothing to update", Classify(bodyErr(http.StatusBadRequest, body)))
}

func TestClassify_ErrorsMustBeObject(t *testing.T) {
	body := `{"errors":["a"],"message":"Bad request"}`

	assert.Equal(t, "Bad request", Classify(bodyErr(http.StatusBadRequest, body)))
}

func TestClassify_NoBody(t *testing.T) {
	transport := &Error{Method: http.MethodGet, Path: "/patients", Err: errors.New("dial tcp: connection refused")}
	assert.Equal(t, "dial tcp: connection refused", Classify(transport))

	emptyBody := &Error{Method: http.MethodDelete, Path: "/patients/3", Status: http.StatusInternalServerError}
	assert.Equal(t, "DELETE /patients/3: 500 Internal Server Error", Classify(emptyBody))

	assert.Equal(t, "context canceled", Classify(context.Canceled))
	assert.Equal(t, FallbackMessage, Classify(nil))
}

func TestClassify_BlankBodyUsesErrorMessage(t *testing.T) {
	for _, body := range []string{"null", `""`, " null \n"} {
		err := bodyErr(http.StatusBadGateway, body)
		assert.Equal(t, err.Error(), Classify(err), "body %q", body)
		assert.NotContains(t, Classify(err), "null")
	}
}

func TestClassify_WrappedError(t *testing.T) {
	err := errors.Join(errors.New("update appointment"), bodyErr(http.StatusBadRequest, `{"message":"boom"}`))

	assert.Equal(t, "boom", Classify(err))
}

func TestStatusHelpers(t *testing.T) {
	notFound := bodyErr(http.StatusNotFound, "")
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsUnauthorized(notFound))
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))

	assert.True(t, IsUnauthorized(bodyErr(http.StatusUnauthorized, "")))
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}
