package step

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Flagship/internal/domain"
)

// Format — транспортная форма шага.
type Format string

// Поддерживаемые формы.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// ParseFormat разбирает имя формы ("json", "xml", "yaml"/"yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// FormatFromPath определяет форму по расширению файла.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode сериализует шаг. Каталог actions не используется.
func Encode(s *Step, format Format) ([]byte, error) {
	return EncodeDocument(s.Document(), format)
}

// Decode создаёт шаг из сериализованной формы.
func (b *Builder) Decode(data []byte, format Format) (*Step, error) {
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	return b.FromDocument(doc)
}

// EncodeDocument сериализует объектную форму.
//
// Целые float64 пишутся с точкой ("2.0"), чтобы при разборе
// не превратиться в int.
func EncodeDocument(doc domain.StepDoc, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(markFloats(doc, jsonFloat), "", "  ")
	case FormatYAML:
		return yaml.Marshal(markFloats(doc, yamlFloat))
	case FormatXML:
		return encodeXML(markFloats(doc, jsonFloat))
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// DecodeDocument разбирает сериализованную форму.
// Структурные ошибки оборачиваются в ErrMalformedDeclaration.
func DecodeDocument(data []byte, format Format) (domain.StepDoc, error) {
	var (
		doc domain.StepDoc
		err error
	)

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err = dec.Decode(&doc); err == nil {
			normalizeDoc(&doc)
		}
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatXML:
		doc, err = decodeXML(data)
	default:
		return doc, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return domain.StepDoc{}, fmt.Errorf("%w: decode %s: %w", ErrMalformedDeclaration, format, err)
	}

	return doc, nil
}

// markFloats возвращает копию документа, в которой целые float64
// заменены значением wrap. Документ вызывающего не меняется.
func markFloats(doc domain.StepDoc, wrap func(string) any) domain.StepDoc {
	out := doc
	out.Args = markArgs(doc.Args, wrap)
	if doc.Filters != nil {
		out.Filters = make([]domain.FilterDoc, len(doc.Filters))
		for i, fd := range doc.Filters {
			out.Filters[i] = domain.FilterDoc{Action: fd.Action, Args: markArgs(fd.Args, wrap)}
		}
	}
	return out
}

func markArgs(args []domain.ArgDoc, wrap func(string) any) []domain.ArgDoc {
	if args == nil {
		return nil
	}
	out := make([]domain.ArgDoc, len(args))
	for i, a := range args {
		out[i] = a
		out[i].Value = markValue(a.Value, wrap)
	}
	return out
}

func markValue(v any, wrap func(string) any) any {
	switch val := v.(type) {
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) || val != math.Trunc(val) {
			return val
		}
		text := strconv.FormatFloat(val, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return wrap(text)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = markValue(item, wrap)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = markValue(item, wrap)
		}
		return out
	default:
		return v
	}
}

// jsonFloat пишет число как есть: json.Number не переформатируется.
func jsonFloat(text string) any {
	return json.Number(text)
}

// yamlFloat пишет скаляр !!float с явной точкой.
func yamlFloat(text string) any {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
}

// normalizeDoc превращает json.Number в int (запись без точки и экспоненты)
// или float64, чтобы тип числа переживал round trip.
func normalizeDoc(doc *domain.StepDoc) {
	for i := range doc.Args {
		doc.Args[i].Value = normalizeNumbers(doc.Args[i].Value)
	}
	for i := range doc.Filters {
		for j := range doc.Filters[i].Args {
			doc.Filters[i].Args[j].Value = normalizeNumbers(doc.Filters[i].Args[j].Value)
		}
	}
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if !strings.ContainsAny(val.String(), ".eE") {
			if n, err := val.Int64(); err == nil {
				return int(n)
			}
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// Древовидная форма:
//
//	<step id="..." action="compare">
//	  <args>
//	    <arg name="operator">"&gt;"</arg>
//	    <arg name="operand"><ref step="fetch" path="body.limit"/></arg>
//	  </args>
//	  <filters>
//	    <filter action="add"><args><arg name="amount">1</arg></args></filter>
//	  </filters>
//	</step>
//
// Литералы хранятся как JSON внутри <arg>. Корень <flag> принимается как синоним <step>.

type xmlStep struct {
	XMLName xml.Name
	ID      string      `xml:"id,attr,omitempty"`
	Action  string      `xml:"action,attr"`
	Args    *xmlArgs    `xml:"args"`
	Filters *xmlFilters `xml:"filters"`
}

type xmlArgs struct {
	Items []xmlArg `xml:"arg"`
}

type xmlArg struct {
	Name  string  `xml:"name,attr"`
	Ref   *xmlRef `xml:"ref"`
	Value string  `xml:",chardata"`
}

type xmlRef struct {
	Step string `xml:"step,attr"`
	Path string `xml:"path,attr,omitempty"`
}

type xmlFilters struct {
	Items []xmlFilter `xml:"filter"`
}

type xmlFilter struct {
	Action string   `xml:"action,attr"`
	Args   *xmlArgs `xml:"args"`
}

func encodeXML(doc domain.StepDoc) ([]byte, error) {
	x := xmlStep{
		XMLName: xml.Name{Local: "step"},
		ID:      doc.ID,
		Action:  doc.Action,
	}

	args, err := argsToXML(doc.Args)
	if err != nil {
		return nil, err
	}
	x.Args = args

	if len(doc.Filters) > 0 {
		x.Filters = &xmlFilters{Items: make([]xmlFilter, len(doc.Filters))}
		for i, fd := range doc.Filters {
			fargs, err := argsToXML(fd.Args)
			if err != nil {
				return nil, fmt.Errorf("filter #%d: %w", i, err)
			}
			x.Filters.Items[i] = xmlFilter{Action: fd.Action, Args: fargs}
		}
	}

	return xml.MarshalIndent(x, "", "  ")
}

func argsToXML(docs []domain.ArgDoc) (*xmlArgs, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	out := &xmlArgs{Items: make([]xmlArg, len(docs))}
	for i, d := range docs {
		if d.IsReference() {
			out.Items[i] = xmlArg{Name: d.Name, Ref: &xmlRef{Step: d.Ref.Step, Path: d.Ref.Path}}
			continue
		}

		raw, err := json.Marshal(d.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", d.Name, err)
		}
		out.Items[i] = xmlArg{Name: d.Name, Value: string(raw)}
	}
	return out, nil
}

func decodeXML(data []byte) (domain.StepDoc, error) {
	var x xmlStep
	if err := xml.Unmarshal(data, &x); err != nil {
		return domain.StepDoc{}, err
	}
	if x.XMLName.Local != "step" && x.XMLName.Local != "flag" {
		return domain.StepDoc{}, fmt.Errorf("unexpected root element <%s>", x.XMLName.Local)
	}

	doc := domain.StepDoc{
		ID:      x.ID,
		Action:  x.Action,
		Filters: []domain.FilterDoc{},
	}

	args, err := argsFromXML(x.Args)
	if err != nil {
		return domain.StepDoc{}, err
	}
	doc.Args = args

	if x.Filters != nil {
		for i, xf := range x.Filters.Items {
			fargs, err := argsFromXML(xf.Args)
			if err != nil {
				return domain.StepDoc{}, fmt.Errorf("filter #%d: %w", i, err)
			}
			doc.Filters = append(doc.Filters, domain.FilterDoc{Action: xf.Action, Args: fargs})
		}
	}

	return doc, nil
}

func argsFromXML(x *xmlArgs) ([]domain.ArgDoc, error) {
	out := []domain.ArgDoc{}
	if x == nil {
		return out, nil
	}

	for _, xa := range x.Items {
		if xa.Ref != nil {
			if strings.TrimSpace(xa.Value) != "" {
				return nil, fmt.Errorf("argument %q has both a value and a reference", xa.Name)
			}
			out = append(out, domain.ArgDoc{Name: xa.Name, Ref: &domain.RefDoc{Step: xa.Ref.Step, Path: xa.Ref.Path}})
			continue
		}

		var value any
		if raw := strings.TrimSpace(xa.Value); raw != "" {
			dec := json.NewDecoder(strings.NewReader(raw))
			dec.UseNumber()
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("argument %q: %w", xa.Name, err)
			}
		}
		out = append(out, domain.ArgDoc{Name: xa.Name, Value: normalizeNumbers(value)})
	}
	return out, nil
}
