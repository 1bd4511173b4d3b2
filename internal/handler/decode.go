package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/pavelanni/quizboard/internal/model"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, errorResponse{Error: msg})
}

type initialRequest struct {
	Name        string  `json:"name"`
	QuestionIDs []int64 `json:"questionIds"`
}

type initialResponse struct {
	Skip  bool   `json:"skip,omitempty"`
	Index *int   `json:"index,omitempty"`
	ID    string `json:"id,omitempty"`
}

type partialRequest struct {
	Index  *int          `json:"index"`
	ID     string        `json:"id"`
	Answer *answerObject `json:"answer"`
}

func (p partialRequest) validate() (model.Answer, error) {
	if p.Answer == nil {
		return model.Answer{}, errors.New("answer is required")
	}
	a, ok := p.Answer.toAnswer()
	if !ok {
		return model.Answer{}, errors.New("answer needs an integer id and chosenIndex")
	}
	return a, nil
}

type partialResponse struct {
	OK    bool `json:"ok"`
	Score int  `json:"score"`
}

type finalRequest struct {
	Index      *int       `json:"index"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Answers    answerList `json:"answers"`
	AllowedIDs []int64    `json:"allowedIds"`
}

// answerObject keeps pointers so a missing field is not read as zero.
type answerObject struct {
	ID     *int64 `json:"id"`
	Chosen *int   `json:"chosenIndex"`
}

func (o answerObject) toAnswer() (model.Answer, bool) {
	if o.ID == nil || o.Chosen == nil {
		return model.Answer{}, false
	}
	return model.Answer{ID: *o.ID, Chosen: *o.Chosen}, true
}

// answerList accepts either [{"id":1,"chosenIndex":0}, ...] or an object
// mapping question ids to chosen indexes. Entries missing a field are
// dropped; values of the wrong type fail decoding.
type answerList []model.Answer

func (l *answerList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '{':
		var m map[string]int
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("answers: %w", err)
		}
		out := make(answerList, 0, len(m))
		for k, chosen := range m {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return fmt.Errorf("answers: question id %q is not an integer", k)
			}
			out = append(out, model.Answer{ID: id, Chosen: chosen})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		*l = out
		return nil
	default:
		var objs []answerObject
		if err := json.Unmarshal(data, &objs); err != nil {
			return fmt.Errorf("answers: %w", err)
		}
		out := make(answerList, 0, len(objs))
		for _, o := range objs {
			if a, ok := o.toAnswer(); ok {
				out = append(out, a)
			}
		}
		*l = out
		return nil
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// decodeFinal reads the final submission either as JSON or as a form whose
// answers and allowedIds fields hold JSON.
func decodeFinal(w http.ResponseWriter, r *http.Request) (finalRequest, error) {
	var req finalRequest
	if !isForm(r) {
		return req, decodeJSON(w, r, &req)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("invalid form: %w", err)
	}
	req.Name = r.FormValue("name")
	req.ID = strings.TrimSpace(r.FormValue("id"))
	if v := strings.TrimSpace(r.FormValue("index")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("index %q is not an integer", v)
		}
		req.Index = &n
	}
	if v := strings.TrimSpace(r.FormValue("answers")); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Answers); err != nil {
			return req, err
		}
	}
	if v := strings.TrimSpace(r.FormValue("allowedIds")); v != "" {
		if err := json.Unmarshal([]byte(v), &req.AllowedIDs); err != nil {
			return req, fmt.Errorf("allowedIds: %w", err)
		}
	}
	return req, nil
}
