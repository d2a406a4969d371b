package common

import (
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var serviceInstance = ""

func NextId(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		return "ashley"
	}
	return name
}

func GetServiceInstance() string {
	if serviceInstance != "" {
		return serviceInstance
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	serviceInstance = hostname
	return serviceInstance
}
