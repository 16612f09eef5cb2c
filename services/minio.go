package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArchiveService uploads CSV snapshots of every table to MinIO after each
// distribution. Disabled when MINIO_ENDPOINT is unset.
type ArchiveService struct {
	appContext.DefaultService

	client     objectPutter
	storeSvc   *StoreService
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
}

const ARCHIVE_SVC = "archive_svc"

func NewArchiveServiceWith(client objectPutter, bucketName string, storeSvc *StoreService) *ArchiveService {
	return &ArchiveService{client: client, bucketName: bucketName, storeSvc: storeSvc}
}

func (svc ArchiveService) Id() string {
	return ARCHIVE_SVC
}

func (svc *ArchiveService) Configure(ctx *appContext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "guessword-archive"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *ArchiveService) Start() error {
	svc.storeSvc = svc.Service(STORE_SVC).(*StoreService)
	if svc.endpoint == "" {
		log.Info("MinIO archive disabled")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	if err := ensureBucket(client, svc.bucketName); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}
	svc.client = client

	log.Printf("MinIO archive started with endpoint: %s", svc.endpoint)
	return nil
}

func ensureBucket(client *minio.Client, bucketName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created MinIO bucket: %s", bucketName)
	}

	return nil
}

func (svc *ArchiveService) Enabled() bool {
	return svc != nil && svc.client != nil
}

// Snapshot exports the three tables as CSV under snapshots/<at>/.
func (svc *ArchiveService) Snapshot(ctx context.Context, at time.Time) error {
	if !svc.Enabled() {
		return nil
	}
	store := svc.storeSvc.Store()
	prefix := path.Join("snapshots", at.UTC().Format("20060102T150405.000000Z"))

	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	distributions, err := store.Distributions(ctx)
	if err != nil {
		return err
	}
	receipts, err := store.GiftReceipts(ctx)
	if err != nil {
		return err
	}

	exports := []struct {
		table string
		write func(io.Writer) error
	}{
		{repositories.TableSessions, func(w io.Writer) error { return repositories.WriteSessionsCSV(w, sessions.Records) }},
		{repositories.TableDistributions, func(w io.Writer) error { return repositories.WriteDistributionsCSV(w, distributions.Records) }},
		{repositories.TableGiftReceipts, func(w io.Writer) error { return repositories.WriteGiftReceiptsCSV(w, receipts.Records) }},
	}

	for _, export := range exports {
		var buf bytes.Buffer
		if err := export.write(&buf); err != nil {
			return err
		}
		objectName := path.Join(prefix, export.table+".csv")
		if _, err := svc.client.PutObject(ctx, svc.bucketName, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
			ContentType: "text/csv",
		}); err != nil {
			return fmt.Errorf("failed to upload %s: %w", objectName, err)
		}
	}

	log.WithField("prefix", prefix).Info("Record snapshot archived")
	return nil
}
