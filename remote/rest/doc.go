// Package rest implements a configurable [longrun.Remote] for REST APIs that
// expose a long-running operation as submit, poll and fetch endpoints.
//
// The status word is located with a [StatusMapper]. Mappers compose with
// [FirstMatch]:
//
//	client, err := rest.New(rest.Config{
//	    SubmitURL:  "https://api.example.com/v1/jobs",
//	    IDPath:     "job.id",
//	    StatusURL:  "https://api.example.com/v1/jobs/{id}",
//	    ResultPath: "job.output",
//	    Mapper: rest.FirstMatch(
//	        rest.JSONFieldMapper("job.state", map[string]longrun.Status{"done": longrun.StatusSucceeded}),
//	        rest.HTTPStatusMapper,
//	    ),
//	})
package rest
