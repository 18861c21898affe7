package blockstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zenotta/compute/internal/security"
)

// ArchiveSink is an optional S3-compatible sink that mirrors finalized
// blocks out of the node's local Badger store for long-term retention. When
// encryption is enabled, each block is wrapped with the node's KeyManager
// before upload: envelope metadata (the wrapped AES key) travels alongside
// the ciphertext as a companion object.
type ArchiveSink struct {
	client    *minio.Client
	bucket    string
	keyMgr    *security.KeyManager
	encrypted bool
}

// NewArchiveSink creates a client for the given S3-compatible endpoint and
// ensures the target bucket exists.
func NewArchiveSink(endpoint, accessKey, secretKey, bucket string, useSSL bool, keyMgr *security.KeyManager, encrypted bool) (*ArchiveSink, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	sink := &ArchiveSink{client: client, bucket: bucket, keyMgr: keyMgr, encrypted: encrypted}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check archive bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create archive bucket: %w", err)
		}
		log.Printf("blockstore: created archive bucket %s", bucket)
	}

	return sink, nil
}

// Archive uploads a finalized block's bytes, encrypting at rest when
// configured to do so.
func (a *ArchiveSink) Archive(ctx context.Context, blockNum uint64, data []byte) error {
	objectKey := blockObjectKey(blockNum)

	if !a.encrypted {
		_, err := a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
		if err != nil {
			return fmt.Errorf("failed to archive block %d: %w", blockNum, err)
		}
		return nil
	}

	ciphertext, encryptedKey, err := a.keyMgr.EncryptData(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt block %d for archival: %w", blockNum, err)
	}

	if _, err := a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(ciphertext), int64(len(ciphertext)), minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("failed to archive encrypted block %d: %w", blockNum, err)
	}

	keyObjectKey := objectKey + ".key"
	if _, err := a.client.PutObject(ctx, a.bucket, keyObjectKey, bytes.NewReader(encryptedKey), int64(len(encryptedKey)), minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("failed to archive wrapped key for block %d: %w", blockNum, err)
	}

	return nil
}

// Retrieve downloads and, if necessary, decrypts a previously archived
// block.
func (a *ArchiveSink) Retrieve(ctx context.Context, blockNum uint64) ([]byte, error) {
	objectKey := blockObjectKey(blockNum)

	obj, err := a.client.GetObject(ctx, a.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived block %d: %w", blockNum, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived block %d: %w", blockNum, err)
	}

	if !a.encrypted {
		return data, nil
	}

	keyObj, err := a.client.GetObject(ctx, a.bucket, objectKey+".key", minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wrapped key for block %d: %w", blockNum, err)
	}
	defer keyObj.Close()

	encryptedKey, err := io.ReadAll(keyObj)
	if err != nil {
		return nil, fmt.Errorf("failed to read wrapped key for block %d: %w", blockNum, err)
	}

	return a.keyMgr.DecryptData(data, encryptedKey)
}

func blockObjectKey(blockNum uint64) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, blockNum)
	return "blocks/" + hex.EncodeToString(buf)
}
