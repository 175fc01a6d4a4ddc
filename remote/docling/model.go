package docling

import (
	"fmt"

	"github.com/jpalmerr/longrun"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusStarted TaskStatus = "started"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailure TaskStatus = "failure"
	TaskStatusRevoked TaskStatus = "revoked"
)

func (s TaskStatus) toStatus() (longrun.Status, error) {
	switch s {
	case TaskStatusPending:
		return longrun.StatusNotStarted, nil
	case TaskStatusStarted:
		return longrun.StatusRunning, nil
	case TaskStatusSuccess:
		return longrun.StatusSucceeded, nil
	case TaskStatusFailure:
		return longrun.StatusFailed, nil
	case TaskStatusRevoked:
		return longrun.StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// File is a document to convert.
type File struct {
	Name string

	Content     []byte
	ContentType string
}

type Task struct {
	TaskID       string     `json:"task_id"`
	TaskStatus   TaskStatus `json:"task_status"`
	TaskPosition *int       `json:"task_position,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
}

type ConvertResult struct {
	Status string `json:"status"`

	Document *Document `json:"document"`

	Errors []ConvertError `json:"errors,omitempty"`

	ProcessingTime float64 `json:"processing_time"`
}

type ConvertError struct {
	Component string `json:"component_type"`
	Module    string `json:"module_name"`
	Message   string `json:"error_message"`
}

type Document struct {
	Filename string `json:"filename"`

	Text     string `json:"text_content"`
	Html     string `json:"html_content"`
	Markdown string `json:"md_content"`

	Json any `json:"json_content"`
}
