package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockAPIForTest creates a backend API mock whose controller is finished
// automatically when the test ends.
func NewMockAPIForTest(t *testing.T) *MockAPI {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockAPI(ctrl)
}
