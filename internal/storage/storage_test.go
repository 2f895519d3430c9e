package storage

import (
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tt := []struct {
		locator   string
		namespace string
		key       string
		valid     bool
	}{
		{locator: "s3://photos/2020/12/cat.jpg", namespace: "photos", key: "2020/12/cat.jpg", valid: true},
		{locator: "s3://photos/cat.png", namespace: "photos", key: "cat.png", valid: true},
		{locator: "s3://photos/", valid: false},
		{locator: "s3:///cat.png", valid: false},
		{locator: "http://photos/cat.png", valid: false},
	}

	for _, tc := range tt {
		t.Run(tc.locator, func(t *testing.T) {
			u, err := url.Parse(tc.locator)
			require.NoError(t, err)

			ns, key, err := ParseLocation(u)
			if !tc.valid {
				assert.True(t, errors.Is(err, ErrInvalidLocation))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.namespace, ns)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.locator, Location(ns, key))
		})
	}
}
