package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

var (
	ErrMalformedURL    = errors.New("malformed URL")
	ErrInvalidMethod   = errors.New("invalid HTTP method")
	ErrFileRead        = errors.New("cannot read multipart file")
	ErrInvalidMimeType = errors.New("invalid MIME type")
	ErrRequestAssembly = errors.New("cannot assemble request")
)

var methods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "CONNECT", "OPTIONS", "TRACE"}

// FileReadError names the multipart part and path that could not be read.
type FileReadError struct {
	Part string
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("multipart part %q: reading %s: %v", e.Part, e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

func (e *FileReadError) Is(target error) bool { return target == ErrFileRead }

type InvalidMimeTypeError struct {
	Part     string
	MimeType string
	Err      error
}

func (e *InvalidMimeTypeError) Error() string {
	return fmt.Sprintf("multipart part %q: invalid MIME type %q: %v", e.Part, e.MimeType, e.Err)
}

func (e *InvalidMimeTypeError) Unwrap() error { return e.Err }

func (e *InvalidMimeTypeError) Is(target error) bool { return target == ErrInvalidMimeType }

// Part is one assembled multipart section.
type Part struct {
	Name     string
	Value    string
	IsFile   bool
	FileName string
	MimeType string
	Content  []byte
}

// Request is a fully interpolated request ready to be sent.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string

	// BodyType is nil when the request has no body.
	BodyType    *schema.BodyType
	Body        []byte
	ContentType string

	// JSON holds the interpolated value sent for json and graphql bodies.
	JSON  any
	Parts []Part
}

// BuildOptions controls filesystem access for multipart file parts.
type BuildOptions struct {
	// BaseDir resolves relative file paths. Usually the schema file's directory.
	BaseDir string
	// RestrictToBaseDir rejects file parts that resolve outside BaseDir.
	RestrictToBaseDir bool
	// ReadFile defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Build interpolates req against vars and assembles the body. It stops at
// the first failing step.
func Build(req *schema.Request, vars map[string]any, opts BuildOptions) (*Request, error) {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}

	rawURL, err := env.InterpolateString(req.URL, vars, env.ModeStrict)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	method, err := ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	out := &Request{
		Method:  method,
		Headers: make(map[string]string, len(req.Headers)),
		Query:   make(map[string]string, len(req.Query)),
	}

	for k, v := range req.Headers {
		val, err := env.InterpolateString(v, vars, env.ModeStrict)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", k, err)
		}
		out.Headers[k] = val
	}

	for k, v := range req.Query {
		val, err := env.InterpolateString(v, vars, env.ModeStrict)
		if err != nil {
			return nil, fmt.Errorf("query parameter %q: %w", k, err)
		}
		out.Query[k] = val
	}

	// Declared parameters are appended; the URL's own query is kept as written.
	if len(out.Query) > 0 {
		declared := make(neturl.Values, len(out.Query))
		for k, v := range out.Query {
			declared.Add(k, v)
		}
		if u.RawQuery != "" {
			u.RawQuery += "&" + declared.Encode()
		} else {
			u.RawQuery = declared.Encode()
		}
	}
	out.URL = u.String()

	if req.Body != nil {
		if err := buildBody(out, req.Body, vars, opts); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ParseMethod normalizes method to an upper-case HTTP verb.
func ParseMethod(method string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(method))
	for _, m := range methods {
		if m == upper {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, method)
}

func parseURL(rawURL string) (*neturl.URL, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedURL, rawURL, err)
	}
	return neturl.Parse(rawURL)
}

func buildBody(out *Request, body *schema.RequestBody, vars map[string]any, opts BuildOptions) error {
	kind := body.Type
	out.BodyType = &kind

	switch body.Type {
	case schema.BodyJSON:
		content, err := env.InterpolateValue(body.Content, vars)
		if err != nil {
			return fmt.Errorf("json body: %w", err)
		}
		return out.setJSON(content)

	case schema.BodyGraphQL:
		query, err := env.InterpolateString(body.Query, vars, env.ModeStrict)
		if err != nil {
			return fmt.Errorf("graphql query: %w", err)
		}
		payload := map[string]any{"query": query}
		if body.HasVariables() {
			variables, err := env.InterpolateValue(body.Variables, vars)
			if err != nil {
				return fmt.Errorf("graphql variables: %w", err)
			}
			payload["variables"] = variables
		}
		return out.setJSON(payload)

	case schema.BodyXML, schema.BodyText, schema.BodyFormURLEncoded:
		content, err := env.InterpolateString(body.Raw, vars, env.ModeStrict)
		if err != nil {
			return fmt.Errorf("%s body: %w", body.Type, err)
		}
		out.Body = []byte(content)
		out.ContentType = defaultContentType(body.Type)
		return nil

	case schema.BodyMultipart:
		return out.setMultipart(body.Parts, vars, opts)
	}

	return fmt.Errorf("%w: unknown body type %s", ErrRequestAssembly, body.Type)
}

func defaultContentType(t schema.BodyType) string {
	switch t {
	case schema.BodyJSON, schema.BodyGraphQL:
		return "application/json"
	case schema.BodyXML:
		return "application/xml"
	case schema.BodyText:
		return "text/plain; charset=utf-8"
	case schema.BodyFormURLEncoded:
		return "application/x-www-form-urlencoded"
	default:
		return ""
	}
}

func (r *Request) setJSON(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding json body: %v", ErrRequestAssembly, err)
	}
	r.JSON = value
	r.Body = data
	r.ContentType = defaultContentType(*r.BodyType)
	return nil
}

func (r *Request) setMultipart(parts []schema.MultipartPart, vars map[string]any, opts BuildOptions) error {
	assembled := make([]Part, 0, len(parts))

	for _, p := range parts {
		switch p.Kind {
		case schema.PartField:
			value, err := env.InterpolateString(p.Value, vars, env.ModeStrict)
			if err != nil {
				return fmt.Errorf("multipart field %q: %w", p.Name, err)
			}
			assembled = append(assembled, Part{Name: p.Name, Value: value})

		case schema.PartFile:
			part, err := buildFilePart(p, vars, opts)
			if err != nil {
				return err
			}
			assembled = append(assembled, part)
		}
	}

	body, contentType, err := encodeMultipart(assembled)
	if err != nil {
		return fmt.Errorf("%w: encoding multipart body: %v", ErrRequestAssembly, err)
	}

	r.Parts = assembled
	r.Body = body
	r.ContentType = contentType
	return nil
}

func buildFilePart(p schema.MultipartPart, vars map[string]any, opts BuildOptions) (Part, error) {
	path, err := env.InterpolateString(p.Path, vars, env.ModeStrict)
	if err != nil {
		return Part{}, fmt.Errorf("multipart file %q: %w", p.Name, err)
	}

	filePath := path
	if !filepath.IsAbs(filePath) && opts.BaseDir != "" {
		filePath = filepath.Join(opts.BaseDir, filePath)
	}

	if opts.RestrictToBaseDir {
		if err := validatePathWithinBase(filePath, opts.BaseDir); err != nil {
			return Part{}, &FileReadError{Part: p.Name, Path: path, Err: err}
		}
	}

	content, err := opts.ReadFile(filePath)
	if err != nil {
		return Part{}, &FileReadError{Part: p.Name, Path: path, Err: err}
	}

	part := Part{
		Name:     p.Name,
		IsFile:   true,
		FileName: filepath.Base(path),
		Content:  content,
	}

	if p.MimeType != nil {
		mimeType, err := env.InterpolateString(*p.MimeType, vars, env.ModeStrict)
		if err != nil {
			return Part{}, fmt.Errorf("multipart file %q mime type: %w", p.Name, err)
		}
		if err := checkMimeType(mimeType); err != nil {
			return Part{}, &InvalidMimeTypeError{Part: p.Name, MimeType: mimeType, Err: err}
		}
		part.MimeType = mimeType
	}

	return part, nil
}

// checkMimeType accepts a type/subtype media type with optional parameters.
// ParseMediaType alone also accepts disposition values such as "form-data".
func checkMimeType(s string) error {
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		return err
	}
	if !strings.Contains(mediaType, "/") {
		return fmt.Errorf("missing subtype in %q", mediaType)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(parts []Part) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, p := range parts {
		if !p.IsFile {
			if err := writer.WriteField(p.Name, p.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.Name), quoteEscaper.Replace(p.FileName)))
		h.Set("Content-Type", mimeType)

		w, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(p.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}

// Header returns the value of a declared header, matched case-insensitively.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
