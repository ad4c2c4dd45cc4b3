package repository

// Redis key schema (kept from the v1 store layout):
//
//	v1:usernames                   SET of participant ids
//	v1:datasets                    SET of dataset ids
//	v1:assignments:<pid>           SET of datasets assigned to pid
//	v1:assignments:<ds>            SET of pids assigned to ds
//	v1:datasets:<ds>               SET of question uids
//	v1:datasets:<ds>:meta          JSON dataset metadata
//	v1:datasets:<ds>:<uid>         JSON question
//	v1:campaigns:<topic>           SET of datasets in campaign
//	v1:campaigns:<topic>:meta      JSON campaign metadata
//	v1:<pid>:<ds>:meta             submission marker ("submitted" or accuracy)
//	v1:<pid>:<ds>:<uid>            JSON response
//	v1:adjudications               SET of pending "pid:ds:uid" keys
//	v1:past_adjudications          SET of resolved "pid:ds:uid" keys
//	v1:<prefix>:idx                counter for rephrased-question datasets
//
// Assignment keys for users and datasets share a namespace; participant ids
// and dataset ids never collide in practice.

const (
	keyUsers               = "v1:usernames"
	keyDatasets            = "v1:datasets"
	keyPendingAdjudication = "v1:adjudications"
	keyPastAdjudication    = "v1:past_adjudications"
)

func keyAssignments(id string) string {
	return "v1:assignments:" + id
}

func keyDatasetQuestions(ds string) string {
	return "v1:datasets:" + ds
}

func keyDatasetMeta(ds string) string {
	return "v1:datasets:" + ds + ":meta"
}

func keyQuestion(ds, uid string) string {
	return "v1:datasets:" + ds + ":" + uid
}

func keyCampaign(topic string) string {
	return "v1:campaigns:" + topic
}

func keyCampaignMeta(topic string) string {
	return "v1:campaigns:" + topic + ":meta"
}

func keyResponse(pid, ds, uid string) string {
	return "v1:" + pid + ":" + ds + ":" + uid
}

func keyMarker(pid, ds string) string {
	return "v1:" + pid + ":" + ds + ":meta"
}

func keyRephraseIndex(prefix string) string {
	return "v1:" + prefix + ":idx"
}
