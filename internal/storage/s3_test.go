package storage

import "testing"

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := parseS3Ref("s3://rubrics/p1/rubric.csv")
	if err != nil {
		t.Fatal("parseS3Ref failed: ", err)
	}
	if bucket != "rubrics" || key != "p1/rubric.csv" {
		t.Errorf("parseS3Ref = (%q, %q); want (rubrics, p1/rubric.csv)", bucket, key)
	}

	for _, ref := range []string{"rubrics/p1.csv", "s3://rubrics", "s3://rubrics/", "s3:///p1.csv"} {
		if _, _, err := parseS3Ref(ref); err == nil {
			t.Errorf("parseS3Ref(%q) succeeded", ref)
		}
	}
}

func TestEndpointURL(t *testing.T) {
	for in, want := range map[string]string{
		"minio:9000":             "http://minio:9000",
		"https://s3.example.com": "https://s3.example.com",
	} {
		if got := endpointURL(in); got != want {
			t.Errorf("endpointURL(%q) = %q; want %q", in, got, want)
		}
	}
}
