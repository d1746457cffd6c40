package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		collectionProjects: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collectionApplications: {
			// One application per (project, student); closes the read-then-insert race.
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_project_student"),
			},
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionNotifications: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}}},
		},
	}
}
