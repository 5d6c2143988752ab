package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegion(t *testing.T) {
	c := defaultCatalog(t)

	tests := []struct {
		location string
		want     string
	}{
		{"Bend, Oregon", "OR"},
		{"Portland", "OR"},
		{"Salem, OR 97301", "OR"},
		{"Beaverton, Washington County, Oregon", "OR"},
		{"Seattle, WA", "WA"},
		{"Spokane", "WA"},
		{"San Diego, California", "CA"},
		{"Sacramento, CA", "CA"},
		{"Boise, ID", "ID"},
		{"Unknown City, Unknown State", ""},
		{"Seattle or Tacoma", "WA"},
		{"Somewhere or other", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ResolveRegion(tt.location))
		})
	}
}

func TestResolveCounty(t *testing.T) {
	c := defaultCatalog(t)

	tests := []struct {
		location string
		want     string
	}{
		{"Bend, Oregon", "central_oregon"},
		{"Redmond OR", "central_oregon"},
		{"Deschutes County", "central_oregon"},
		{"Portland, OR", "multnomah"},
		{"Hillsboro, Oregon", "washington"},
		{"Beaverton, Washington County, Oregon", "washington"},
		{"Eugene", "lane"},
		{"Salem, Oregon", "marion"},
		{"Medford", "jackson"},
		{"Lake Oswego, OR", "clackamas"},
		{"Astoria, Oregon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ResolveCounty("OR", tt.location))
		})
	}

	assert.Equal(t, "", c.ResolveCounty("WA", "Seattle"), "shallow regions have no counties")
	assert.Equal(t, "", c.ResolveCounty("ZZ", "Bend"))
}

func TestNames(t *testing.T) {
	c := defaultCatalog(t)

	assert.Equal(t, "Oregon", c.RegionName("or"))
	assert.Equal(t, "", c.RegionName("ZZ"))
	assert.Contains(t, c.CountyName("OR", "central_oregon"), "Deschutes")
	assert.True(t, c.HasCounties("OR"))
	assert.False(t, c.HasCounties("CA"))
}
