//go:build http_enabled

package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// makeHttpRequest makes a POST HTTP request to an endpoint and returns the
// body of the response as a string.
func makeHttpRequest(url string, fields map[string]string, files map[string][]byte) string {
	// Create a buffer to write our multipart form data.
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)
	for k, v := range fields {
		err := writer.WriteField(k, v)
		Check(err)
	}
	for k, v := range files {
		part, err := writer.CreateFormFile(k, k)
		Check(err)
		_, err = part.Write(v)
		Check(err)
	}
	err := writer.Close()
	Check(err)

	// Create a POST request with the multipart form data.
	request, err := http.NewRequest("POST", url, &requestBody)
	Check(err)
	request.Header.Set("content-type", writer.FormDataContentType())

	// Perform the request.
	client := &http.Client{}
	response, err := client.Do(request)
	Check(err)
	if response.StatusCode != 200 {
		Check(fmt.Errorf("http request failed: %d", response.StatusCode))
	}
	data, err := io.ReadAll(response.Body)
	Check(err)
	return string(data)
}

func InitializeRunInDbHttp(user string,
	releaseVersion int64,
	simulationVersion int64,
	inputVersion int64,
	id uuid.UUID) {
	url := "https://playful-patterns.com/submit-run-phylosim.php"
	makeHttpRequest(url,
		map[string]string{
			"user":               user,
			"release_version":    strconv.FormatInt(releaseVersion, 10),
			"simulation_version": strconv.FormatInt(simulationVersion, 10),
			"input_version":      strconv.FormatInt(inputVersion, 10),
			"id":                 id.String()},
		map[string][]byte{})
}

func UploadRunDataHttp(user string,
	releaseVersion int64,
	simulationVersion int64,
	inputVersion int64,
	id uuid.UUID, data []byte) {
	url := "https://playful-patterns.com/submit-run-phylosim.php"
	makeHttpRequest(url,
		map[string]string{
			"user":               user,
			"release_version":    strconv.FormatInt(releaseVersion, 10),
			"simulation_version": strconv.FormatInt(simulationVersion, 10),
			"input_version":      strconv.FormatInt(inputVersion, 10),
			"id":                 id.String()},
		map[string][]byte{"run": data})
}
