package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kdatlt/foodgram/internal/utils/storage"
)

const fakeStorageBaseURL = "https://storage.test/foodgram/"

var ErrFakeUpload = errors.New("fake upload failure")

// FakeStorage keeps uploaded objects in memory.
type FakeStorage struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	FailNext  bool
	uploadSeq int
}

var _ storage.AwsS3 = (*FakeStorage)(nil)

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Objects: map[string][]byte{}}
}

func (f *FakeStorage) UploadFile(_ context.Context, fileName string, data []byte, contentType string, folder string, allowTypes ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNext {
		f.FailNext = false
		return "", ErrFakeUpload
	}
	if len(allowTypes) > 0 && !slices.Contains(allowTypes, contentType) {
		return "", storage.ErrFileTypeNotAllowed
	}
	f.uploadSeq++
	key := fmt.Sprintf("%s/%d-%s", folder, f.uploadSeq, fileName)
	f.Objects[key] = data
	return key, nil
}

func (f *FakeStorage) DeleteFile(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, objectKey)
	return nil
}

func (f *FakeStorage) GetPublicLinkKey(objectKey string) string {
	return fakeStorageBaseURL + objectKey
}

func (f *FakeStorage) GetObjectKeyFromLink(link string) string {
	if !strings.HasPrefix(link, fakeStorageBaseURL) {
		return ""
	}
	return strings.TrimPrefix(link, fakeStorageBaseURL)
}

func (f *FakeStorage) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

// FakeMailer records mail instead of sending it.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *FakeMailer) SendMail(toEmail string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: toEmail, Subject: subject, Body: body})
	return nil
}

// PNGDataURI is a 1x1 transparent PNG.
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
