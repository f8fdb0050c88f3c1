package models

import (
	"encoding/json"
	"testing"
)

func TestSubjectKindValid(t *testing.T) {
	if !KindRestaurant.Valid() {
		t.Fatal("restaurant should be a valid kind")
	}
	if !KindSpot.Valid() {
		t.Fatal("spot should be a valid kind")
	}
	for _, kind := range []SubjectKind{"", "mall", "Restaurant", "SPOT"} {
		if kind.Valid() {
			t.Fatalf("%q should not be a valid kind", kind)
		}
	}
}

func TestReviewSubjectRef(t *testing.T) {
	review := Review{SubjectKind: KindSpot, SubjectID: 42}
	ref := review.SubjectRef()
	if ref.Kind != KindSpot || ref.SubjectID != 42 {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestUserMarshalNormalizesSavedSubjects(t *testing.T) {
	u := User{Username: "rani"}

	out, err := json.Marshal(&u)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}

	saved, ok := decoded["savedSubjects"].([]interface{})
	if !ok {
		t.Fatalf("savedSubjects should always be an array, got %T", decoded["savedSubjects"])
	}
	if len(saved) != 0 {
		t.Fatalf("expected empty array, got %v", saved)
	}

	if _, present := decoded["password"]; present {
		t.Fatal("password hash must never be serialized")
	}
}
