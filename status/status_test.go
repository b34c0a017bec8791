// Copyright 2024 The Loadkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import "testing"

func TestConstructorsSetKindAndCode(t *testing.T) {
	cases := []struct {
		got  Status
		want Kind
	}{
		{SuccessStatus(200), Success},
		{ClientErrorStatus(404), ClientError},
		{ServerErrorStatus(503), ServerError},
		{ErrorStatus(-1), Error},
	}
	for _, c := range cases {
		if c.got.Kind != c.want {
			t.Errorf("Kind = %v, want %v", c.got.Kind, c.want)
		}
	}
}

func TestStatusEqualityAsMapKey(t *testing.T) {
	m := map[Status]int{}
	m[SuccessStatus(200)]++
	m[SuccessStatus(200)]++
	m[SuccessStatus(201)]++
	if m[SuccessStatus(200)] != 2 {
		t.Errorf("expected two increments to collapse to one key, got %d", m[SuccessStatus(200)])
	}
	if len(m) != 2 {
		t.Errorf("expected 2 distinct keys, got %d", len(m))
	}
}

func TestStringFormat(t *testing.T) {
	s := SuccessStatus(200)
	if got, want := s.String(), "OK(200)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	ce := ClientErrorStatus(404)
	if got, want := ce.String(), "CE(404)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k Kind = 99
	if got, want := k.String(), "Kind(99)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
