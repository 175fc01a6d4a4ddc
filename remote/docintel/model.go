package docintel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jpalmerr/longrun"
)

type OperationStatus string

const (
	OperationStatusNotStarted OperationStatus = "notStarted"
	OperationStatusRunning    OperationStatus = "running"
	OperationStatusSucceeded  OperationStatus = "succeeded"
	OperationStatusFailed     OperationStatus = "failed"
	OperationStatusCanceled   OperationStatus = "canceled"
)

func (s OperationStatus) toStatus() (longrun.Status, error) {
	switch s {
	case OperationStatusNotStarted:
		return longrun.StatusNotStarted, nil
	case OperationStatusRunning:
		return longrun.StatusRunning, nil
	case OperationStatusSucceeded:
		return longrun.StatusSucceeded, nil
	case OperationStatusFailed:
		return longrun.StatusFailed, nil
	case OperationStatusCanceled:
		return longrun.StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown operation status %q", s)
	}
}

// Operation is the resource behind an Operation-Location URL. Analyze
// operations carry their output in AnalyzeResult, model operations in Result.
type Operation struct {
	Status OperationStatus `json:"status"`

	OperationID      string    `json:"operationId,omitempty"`
	Kind             string    `json:"kind,omitempty"`
	PercentCompleted int       `json:"percentCompleted,omitempty"`
	CreatedDateTime  time.Time `json:"createdDateTime,omitempty"`
	LastUpdated      time.Time `json:"lastUpdatedDateTime,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`

	AnalyzeResult *AnalyzeResult  `json:"analyzeResult,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

type AnalyzeResult struct {
	APIVersion string `json:"apiVersion"`
	ModelID    string `json:"modelId"`

	ContentFormat string `json:"contentFormat,omitempty"`
	Content       string `json:"content"`

	Pages         []Page         `json:"pages"`
	Paragraphs    []Paragraph    `json:"paragraphs,omitempty"`
	Tables        []Table        `json:"tables,omitempty"`
	KeyValuePairs []KeyValuePair `json:"keyValuePairs,omitempty"`
	Languages     []Language     `json:"languages,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
}

type Page struct {
	PageNumber int     `json:"pageNumber"`
	Angle      float64 `json:"angle"`

	Unit   string  `json:"unit"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Words          []Word          `json:"words"`
	Lines          []Line          `json:"lines"`
	SelectionMarks []SelectionMark `json:"selectionMarks"`
}

type Word struct {
	Content string `json:"content"`

	Span    Span      `json:"span"`
	Polygon []float64 `json:"polygon"`

	Confidence float64 `json:"confidence"`
}

type Line struct {
	Content string `json:"content"`

	Spans   []Span    `json:"spans"`
	Polygon []float64 `json:"polygon"`
}

type SelectionMark struct {
	State string `json:"state"`

	Span    Span      `json:"span"`
	Polygon []float64 `json:"polygon"`

	Confidence float64 `json:"confidence"`
}

type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type BoundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon"`
}

type Paragraph struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`

	Spans           []Span           `json:"spans"`
	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
}

type Table struct {
	RowCount    int         `json:"rowCount"`
	ColumnCount int         `json:"columnCount"`
	Cells       []TableCell `json:"cells"`

	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Spans           []Span           `json:"spans"`
}

type TableCell struct {
	Kind string `json:"kind,omitempty"`

	RowIndex    int `json:"rowIndex"`
	ColumnIndex int `json:"columnIndex"`
	RowSpan     int `json:"rowSpan,omitempty"`
	ColumnSpan  int `json:"columnSpan,omitempty"`

	Content string `json:"content"`

	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Spans           []Span           `json:"spans"`
}

type KeyValuePair struct {
	Key   KeyValueElement  `json:"key"`
	Value *KeyValueElement `json:"value,omitempty"`

	Confidence float64 `json:"confidence"`
}

type KeyValueElement struct {
	Content string `json:"content"`

	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Spans           []Span           `json:"spans"`
}

type Language struct {
	Locale     string  `json:"locale"`
	Spans      []Span  `json:"spans"`
	Confidence float64 `json:"confidence"`
}

// Document is one typed document recognised by a prebuilt or custom model,
// for example a receipt or an invoice.
type Document struct {
	DocType string `json:"docType"`

	Fields map[string]DocumentField `json:"fields"`

	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Spans           []Span           `json:"spans"`

	Confidence float64 `json:"confidence"`
}

type DocumentFieldType string

const (
	FieldTypeString        DocumentFieldType = "string"
	FieldTypeDate          DocumentFieldType = "date"
	FieldTypeTime          DocumentFieldType = "time"
	FieldTypePhoneNumber   DocumentFieldType = "phoneNumber"
	FieldTypeNumber        DocumentFieldType = "number"
	FieldTypeInteger       DocumentFieldType = "integer"
	FieldTypeSelectionMark DocumentFieldType = "selectionMark"
	FieldTypeCountryRegion DocumentFieldType = "countryRegion"
	FieldTypeSignature     DocumentFieldType = "signature"
	FieldTypeCurrency      DocumentFieldType = "currency"
	FieldTypeAddress       DocumentFieldType = "address"
	FieldTypeBoolean       DocumentFieldType = "boolean"
	FieldTypeArray         DocumentFieldType = "array"
	FieldTypeObject        DocumentFieldType = "object"
)

// DocumentField is an extracted field. Exactly one of the value members is
// set, selected by Type.
type DocumentField struct {
	Type DocumentFieldType `json:"type"`

	ValueString        string                   `json:"valueString,omitempty"`
	ValueDate          string                   `json:"valueDate,omitempty"`
	ValueTime          string                   `json:"valueTime,omitempty"`
	ValuePhoneNumber   string                   `json:"valuePhoneNumber,omitempty"`
	ValueNumber        *float64                 `json:"valueNumber,omitempty"`
	ValueInteger       *int64                   `json:"valueInteger,omitempty"`
	ValueSelectionMark string                   `json:"valueSelectionMark,omitempty"`
	ValueSignature     string                   `json:"valueSignature,omitempty"`
	ValueCountryRegion string                   `json:"valueCountryRegion,omitempty"`
	ValueBoolean       *bool                    `json:"valueBoolean,omitempty"`
	ValueCurrency      *CurrencyValue           `json:"valueCurrency,omitempty"`
	ValueAddress       *AddressValue            `json:"valueAddress,omitempty"`
	ValueArray         []DocumentField          `json:"valueArray,omitempty"`
	ValueObject        map[string]DocumentField `json:"valueObject,omitempty"`

	Content string `json:"content,omitempty"`

	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Spans           []Span           `json:"spans,omitempty"`

	Confidence *float64 `json:"confidence,omitempty"`
}

type CurrencyValue struct {
	Amount         float64 `json:"amount"`
	CurrencySymbol string  `json:"currencySymbol,omitempty"`
	CurrencyCode   string  `json:"currencyCode,omitempty"`
}

type AddressValue struct {
	HouseNumber   string `json:"houseNumber,omitempty"`
	Road          string `json:"road,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	CountryRegion string `json:"countryRegion,omitempty"`
	StreetAddress string `json:"streetAddress,omitempty"`
}

// Value returns the typed value of the field, or its content when the typed
// member is missing. Arrays and objects are returned as []any and
// map[string]any of values.
func (f DocumentField) Value() any {
	switch f.Type {
	case FieldTypeString:
		return f.ValueString
	case FieldTypeDate:
		return f.ValueDate
	case FieldTypeTime:
		return f.ValueTime
	case FieldTypePhoneNumber:
		return f.ValuePhoneNumber
	case FieldTypeSelectionMark:
		return f.ValueSelectionMark
	case FieldTypeSignature:
		return f.ValueSignature
	case FieldTypeCountryRegion:
		return f.ValueCountryRegion
	case FieldTypeNumber:
		if f.ValueNumber != nil {
			return *f.ValueNumber
		}
	case FieldTypeInteger:
		if f.ValueInteger != nil {
			return *f.ValueInteger
		}
	case FieldTypeBoolean:
		if f.ValueBoolean != nil {
			return *f.ValueBoolean
		}
	case FieldTypeCurrency:
		if f.ValueCurrency != nil {
			return *f.ValueCurrency
		}
	case FieldTypeAddress:
		if f.ValueAddress != nil {
			return *f.ValueAddress
		}
	case FieldTypeArray:
		values := make([]any, 0, len(f.ValueArray))
		for _, v := range f.ValueArray {
			values = append(values, v.Value())
		}
		return values
	case FieldTypeObject:
		values := make(map[string]any, len(f.ValueObject))
		for k, v := range f.ValueObject {
			values[k] = v.Value()
		}
		return values
	}

	return f.Content
}

// ModelDetails describes a document model.
type ModelDetails struct {
	ModelID     string `json:"modelId"`
	Description string `json:"description,omitempty"`

	CreatedDateTime    time.Time  `json:"createdDateTime"`
	ExpirationDateTime *time.Time `json:"expirationDateTime,omitempty"`

	APIVersion string    `json:"apiVersion,omitempty"`
	BuildMode  BuildMode `json:"buildMode,omitempty"`

	Tags     map[string]string         `json:"tags,omitempty"`
	DocTypes map[string]DocTypeDetails `json:"docTypes,omitempty"`
}

type DocTypeDetails struct {
	Description string    `json:"description,omitempty"`
	BuildMode   BuildMode `json:"buildMode,omitempty"`

	FieldSchema     map[string]FieldSchema `json:"fieldSchema"`
	FieldConfidence map[string]float64     `json:"fieldConfidence,omitempty"`
}

type FieldSchema struct {
	Type        DocumentFieldType `json:"type"`
	Description string            `json:"description,omitempty"`
}

type BuildMode string

const (
	BuildModeTemplate BuildMode = "template"
	BuildModeNeural   BuildMode = "neural"
)

// CopyAuthorization is issued by the target resource and allows a source
// resource to copy a model into it.
type CopyAuthorization struct {
	TargetResourceID     string    `json:"targetResourceId"`
	TargetResourceRegion string    `json:"targetResourceRegion"`
	TargetModelID        string    `json:"targetModelId"`
	TargetModelLocation  string    `json:"targetModelLocation"`
	AccessToken          string    `json:"accessToken"`
	ExpirationDateTime   time.Time `json:"expirationDateTime"`
}
