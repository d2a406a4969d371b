package indices

import (
	"ashley/client/es"
	"ashley/domain"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var WorkflowIndexName = "workflows"

type WorkflowDocument struct {
	domain.WorkflowDetail
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexWorkflows(workflows []domain.WorkflowDetail) error {
	docs := make([]WorkflowDocument, 0, len(workflows))
	for _, w := range workflows {
		docs = append(docs, WorkflowDocument{WorkflowDetail: w})
	}

	if err := saveWorkflowDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveWorkflowDocuments(docs []WorkflowDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(WorkflowIndexName, doc.ID, doc, indexRobot); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index workflow %d %s %s\n", doc.ID, doc.Name, err)
		} else {
			logrus.Infof("index workflow %d %s successfully\n", doc.ID, doc.Name)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
