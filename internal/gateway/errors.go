package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"fleetconsole/internal/domain"
)

// errorPayload accepts the backend's error shapes:
// {"error": "..."}, {"message": "...", "field": "..."} and
// {"errors": {"field": ["..."]}}.
type errorPayload struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Detail  string              `json:"detail"`
	Field   string              `json:"field"`
	Errors  map[string][]string `json:"errors"`
}

func parseErrorPayload(body []byte) (field, msg string) {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", strings.TrimSpace(string(body))
	}
	field = p.Field
	for _, m := range []string{p.Message, p.Error, p.Detail} {
		if strings.TrimSpace(m) != "" {
			msg = strings.TrimSpace(m)
			break
		}
	}
	if msg == "" {
		for f, ms := range p.Errors {
			if len(ms) > 0 {
				field, msg = f, ms[0]
				break
			}
		}
	}
	return field, msg
}

func errorMessage(body []byte) string {
	_, msg := parseErrorPayload(body)
	return msg
}

// classify is the one place where HTTP statuses become domain errors.
func classify(req Request, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return resp, nil
	}
	field, msg := parseErrorPayload(resp.Body)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, domain.ValidationError{Field: field, Msg: msg}
	case http.StatusConflict:
		return nil, domain.ConflictError{Msg: msg}
	case http.StatusUnauthorized:
		return nil, domain.AuthError{Kind: domain.AuthInvalidCredentials, Msg: msg}
	case http.StatusForbidden:
		return nil, domain.AuthError{Kind: domain.AuthForbidden, Msg: msg}
	case http.StatusNotFound:
		return nil, domain.NotFoundError{Resource: strings.Trim(req.Path, "/")}
	default:
		return nil, domain.UnknownError{Status: resp.StatusCode, Msg: msg}
	}
}
