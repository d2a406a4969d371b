package indices

import (
	"ashley/client/es"
	"ashley/domain"

	"github.com/sirupsen/logrus"
)

var InspectionIndexName = "inspections"

type InspectionDocument struct {
	domain.InspectionDetail
}

func IndexInspections(inspections []domain.InspectionDetail) error {
	docs := make([]InspectionDocument, 0, len(inspections))
	for _, i := range inspections {
		docs = append(docs, InspectionDocument{InspectionDetail: i})
	}

	if err := saveInspectionDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveInspectionDocuments(docs []InspectionDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(InspectionIndexName, doc.ID, doc, indexRobot); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index inspection %d %s\n", doc.ID, err)
		} else {
			logrus.Infof("index inspection %d successfully\n", doc.ID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
