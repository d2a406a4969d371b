package quality

import (
	"ashley/bizerror"
	"ashley/client/s3"
	"ashley/domain"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"io"
	"io/ioutil"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	UploadInspectionPhotoFunc = UploadInspectionPhoto
	DetailInspectionPhotoFunc = DetailInspectionPhoto
)

// UploadInspectionPhoto stores a photo in the photo bucket and appends its
// key to the inspection record. Only open inspections accept photos.
func UploadInspectionPhoto(inspectionId types.ID, r io.Reader, sec *session.Session) (string, error) {
	var key string
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		inspection := domain.QCInspection{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.QCInspection{ID: inspectionId}).First(&inspection).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix("_" + inspection.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}
		if inspection.Status.IsTerminal() {
			return bizerror.ErrInspectionFinalized
		}

		key = "inspections/" + inspectionId.String() + "/" + idgen.NextID(idWorker).String() + ".jpg"
		if err := s3.PutObjectFunc(key, r, sec); err != nil {
			return err
		}

		photos := append(domain.PhotoURLs{}, inspection.Photos...)
		photos = append(photos, key)
		return tx.Model(&domain.QCInspection{}).Where(&domain.QCInspection{ID: inspectionId}).
			Update("photos", photos).Error
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func DetailInspectionPhoto(key string, sec *session.Session) ([]byte, error) {
	r, err := s3.GetObjectFunc(key, sec)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}
