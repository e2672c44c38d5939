package digest

import "testing"

// TestParseTag tests that parsing from a tag string succeeds for every
// supported algorithm and fails for anything else.
func TestParseTag(t *testing.T) {
	testCases := []struct {
		tag           string
		expected      Algorithm
		expectFailure bool
	}{
		{"", AlgorithmInvalid, true},
		{"asdf", AlgorithmInvalid, true},
		{"md5", AlgorithmMD5, false},
		{"sha1", AlgorithmSHA1, false},
		{"sha256", AlgorithmSHA256, false},
		{"sha512", AlgorithmSHA512, false},
	}

	for _, testCase := range testCases {
		algorithm, err := ParseTag(testCase.tag)
		if err != nil {
			if !testCase.expectFailure {
				t.Errorf("unable to parse tag (%s): %s", testCase.tag, err)
			}
			continue
		}
		if testCase.expectFailure {
			t.Error("parsing succeeded unexpectedly for tag:", testCase.tag)
		} else if algorithm != testCase.expected {
			t.Errorf("parsed algorithm (%s) does not match expected (%s)", algorithm, testCase.expected)
		}
	}
}

// TestSupported tests that Supported rejects the zero value and accepts
// every named algorithm.
func TestSupported(t *testing.T) {
	testCases := []struct {
		algorithm Algorithm
		expected  bool
	}{
		{AlgorithmInvalid, false},
		{AlgorithmMD5, true},
		{AlgorithmSHA1, true},
		{AlgorithmSHA256, true},
		{AlgorithmSHA512, true},
		{AlgorithmSHA512 + 1, false},
	}

	for _, testCase := range testCases {
		if supported := testCase.algorithm.Supported(); supported != testCase.expected {
			t.Errorf("support status (%v) does not match expected (%v) for %v", supported, testCase.expected, testCase.algorithm)
		}
	}
}

// TestSumKnownVectors checks fixed test vectors to ensure digest computation
// is wired to the correct underlying hash implementation per algorithm.
func TestSumKnownVectors(t *testing.T) {
	testCases := []struct {
		algorithm Algorithm
		input     string
		expected  string
	}{
		{AlgorithmSHA1, "Hello, World!", "0a0a9f2a6772942557ab5355d76af442f8f65e01"},
		{AlgorithmMD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{AlgorithmSHA256, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}

	for _, testCase := range testCases {
		if got := testCase.algorithm.Sum([]byte(testCase.input)); got != testCase.expected {
			t.Errorf("digest (%s) does not match expected (%s) for %s", got, testCase.expected, testCase.algorithm)
		}
	}
}

// TestSize tests that Size reports the correct hex-encoded digest length.
func TestSize(t *testing.T) {
	testCases := []struct {
		algorithm Algorithm
		expected  int
	}{
		{AlgorithmMD5, 32},
		{AlgorithmSHA1, 40},
		{AlgorithmSHA256, 64},
		{AlgorithmSHA512, 128},
	}

	for _, testCase := range testCases {
		if got := testCase.algorithm.Size(); got != testCase.expected {
			t.Errorf("size (%d) does not match expected (%d) for %s", got, testCase.expected, testCase.algorithm)
		}
	}
}
