package quality_test

import (
	"ashley/bizerror"
	"ashley/client/s3"
	"ashley/domain"
	"ashley/domain/quality"
	"ashley/session"
	"ashley/testinfra"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func TestUploadInspectionPhoto(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should store the photo and append its key to the inspection", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		var storedKey, storedContent string
		s3.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
			bytes, err := ioutil.ReadAll(r)
			if err != nil {
				return err
			}
			storedKey = key
			storedContent = string(bytes)
			return nil
		}

		point := createPoint(t, 1, false)
		inspection := createInspection(t, point, 10, []string{"existing.jpg"})

		key, err := quality.UploadInspectionPhoto(inspection.ID, strings.NewReader("binary-data"),
			testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(BeNil())
		Expect(key).To(HavePrefix("inspections/" + inspection.ID.String() + "/"))
		Expect(key).To(HaveSuffix(".jpg"))
		Expect(storedKey).To(Equal(key))
		Expect(storedContent).To(Equal("binary-data"))

		record := domain.QCInspection{}
		db := testDatabase.DS.GormDB(testinfra.BuildSecCtx(300, "inspector_1").Context)
		Expect(db.Where(&domain.QCInspection{ID: inspection.ID}).First(&record).Error).To(BeNil())
		Expect(record.Photos).To(Equal(domain.PhotoURLs{"existing.jpg", key}))
	})

	t.Run("should forbid uploads outside the workspace", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		point := createPoint(t, 1, false)
		inspection := createInspection(t, point, 10, nil)

		_, err := quality.UploadInspectionPhoto(inspection.ID, strings.NewReader("binary-data"),
			testinfra.BuildSecCtx(300, "inspector_2"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should reject uploads to finalized inspections", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		point := createPoint(t, 1, false)
		inspection := createInspection(t, point, 10, nil)
		sec := testinfra.BuildSecCtx(300, "inspector_1")
		Expect(testDatabase.DS.GormDB(sec.Context).Model(&domain.QCInspection{}).
			Where("id = ?", inspection.ID).
			Update("status", domain.InspectionStatusPassed).Error).To(BeNil())

		_, err := quality.UploadInspectionPhoto(inspection.ID, strings.NewReader("binary-data"), sec)
		Expect(err).To(Equal(bizerror.ErrInspectionFinalized))
	})

	t.Run("should report not found for unknown inspections", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		_, err := quality.UploadInspectionPhoto(404404, strings.NewReader("binary-data"),
			testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(gorm.IsRecordNotFoundError(err)).To(BeTrue())
	})
}

func TestDetailInspectionPhoto(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should read the photo from the bucket", func(t *testing.T) {
		var requestedKey string
		s3.GetObjectFunc = func(key string, s *session.Session, opts ...oss.Option) (io.ReadCloser, error) {
			requestedKey = key
			return ioutil.NopCloser(strings.NewReader("img-bytes")), nil
		}

		bytes, err := quality.DetailInspectionPhoto("inspections/812/900.jpg",
			testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(BeNil())
		Expect(requestedKey).To(Equal("inspections/812/900.jpg"))
		Expect(string(bytes)).To(Equal("img-bytes"))
	})

	t.Run("should report not found for missing keys", func(t *testing.T) {
		s3.GetObjectFunc = func(key string, s *session.Session, opts ...oss.Option) (io.ReadCloser, error) {
			return nil, oss.ServiceError{Code: "NoSuchKey"}
		}

		_, err := quality.DetailInspectionPhoto("inspections/812/missing.jpg",
			testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}
