package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turfease/platform/internal/domain"
)

func TestOptimizeImage_DefaultsToAutomatic(t *testing.T) {
	svc := NewUploadService(&fakeMedia{})

	img, err := svc.OptimizeImage("turfs/abc", OptimizeInput{})
	require.NoError(t, err)
	assert.Equal(t, "turfs/abc", img.PublicID)
	assert.Equal(t, "https://media.test/f_auto,q_auto/turfs/abc", img.URL)
}

func TestOptimizeImage_AppliesRequestedTransform(t *testing.T) {
	svc := NewUploadService(&fakeMedia{})

	img, err := svc.OptimizeImage("/turfs/abc", OptimizeInput{Width: "300", Height: "200", Quality: "80", Format: "WEBP"})
	require.NoError(t, err)
	assert.Equal(t, "turfs/abc", img.PublicID)
	assert.Equal(t, "https://media.test/f_webp,h_200,q_80,w_300/turfs/abc", img.URL)
}

func TestOptimizeImage_RejectsBadInput(t *testing.T) {
	svc := NewUploadService(&fakeMedia{})

	cases := map[string]OptimizeInput{
		"zero width":     {Width: "0"},
		"text height":    {Height: "tall"},
		"huge width":     {Width: "9000"},
		"quality range":  {Quality: "101"},
		"unknown format": {Format: "bmp"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.OptimizeImage("turfs/abc", in)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		})
	}

	_, err := svc.OptimizeImage("  ", OptimizeInput{})
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestOptimizeImage_MediaFailure(t *testing.T) {
	svc := NewUploadService(&fakeMedia{err: errors.New("boom")})

	_, err := svc.OptimizeImage("turfs/abc", OptimizeInput{})
	assert.Equal(t, domain.CodeDependency, domain.CodeOf(err))
}
