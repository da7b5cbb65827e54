package openai

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		return fmt.Errorf("openai: %d: %s", apierr.StatusCode, apierr.Message)
	}

	return err
}

// ModelDimensions lists the native output size of the hosted embedding models.
var ModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}
