package utils

import (
	"fmt"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

const storageBucket = "form-uploads"

// MirrorEnabled reports whether a Supabase bucket is configured. When it is,
// stored uploads are mirrored there after the local write succeeds.
func MirrorEnabled() bool {
	return os.Getenv("SUPABASE_URL") != "" && os.Getenv("SUPABASE_KEY") != ""
}

// MirrorFile uploads a locally stored file to the configured bucket under
// objectPath and returns the public URL.
func MirrorFile(localPath, objectPath, contentType string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	objectPath = filepath.ToSlash(objectPath)
	if _, err := storageClient.UploadFile(storageBucket, objectPath, f, options); err != nil {
		return "", fmt.Errorf("mirror upload: %w", err)
	}

	publicURL := storageClient.GetPublicUrl(storageBucket, objectPath)
	return publicURL.SignedURL, nil
}
